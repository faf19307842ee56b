package forbiddencalls

import (
	"log"
	"math/rand" // want "math/rand is forbidden outside the generator package, use crypto/rand"
	"os"
)

func ShortCode() string {
	return string(rune('a' + rand.Intn(26)))
}

func Panics() {
	panic("this is forbidden") // want "panic is forbidden"
}

func LogFatal() {
	log.Fatal("this is forbidden") // want "log.Fatal is forbidden outside main function"
}

func LogFatalf() {
	log.Fatalf("forbidden %d", 1) // want "log.Fatalf is forbidden outside main function"
}

func Exits() {
	os.Exit(1) // want "os.Exit is forbidden outside main function"
}

// main in a library package gets no exemption.
func main() {
	os.Exit(0) // want "os.Exit is forbidden outside main function"
}

func Shadowed() {
	panic := func(string) {}
	panic("local function")
	log.Println("allowed")
}
