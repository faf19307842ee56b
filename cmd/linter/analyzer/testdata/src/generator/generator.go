package generator

import "math/rand"

func Pick(alphabet string) byte {
	return alphabet[rand.Intn(len(alphabet))]
}
