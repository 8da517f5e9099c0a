package main

import (
	"fmt"
	"os"

	"github.com/cocollecte/cocal/internal/auth"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: hashpass <mot de passe>")
		os.Exit(1)
	}

	hash, err := auth.Hash(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "erreur de hachage : %v\n", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
