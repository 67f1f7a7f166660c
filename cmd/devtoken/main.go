// Command devtoken mints an access token for local development, standing in
// for the identity provider.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dmitrijs2005/gophdrive/internal/server/auth"
	"github.com/google/uuid"
)

func main() {
	fs := flag.NewFlagSet("devtoken", flag.ExitOnError)
	userID := fs.String("u", "", "user id to put in the token (random when empty)")
	secret := fs.String("s", "secretKey", "HS256 secret shared with the server")
	validity := fs.Duration("t", 24*time.Hour, "token validity")
	_ = fs.Parse(os.Args[1:])

	if *userID == "" {
		*userID = uuid.NewString()
	}

	token, err := auth.GenerateToken(*userID, []byte(*secret), *validity)
	if err != nil {
		log.Fatalf("%v", err)
	}

	fmt.Fprintf(os.Stderr, "user id: %s\n", *userID)
	fmt.Println(token)
}
