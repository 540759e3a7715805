package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"eventix-gateway/internal/backend"
	"eventix-gateway/internal/config"
	"eventix-gateway/internal/logger"
	"eventix-gateway/internal/tickets"

	"github.com/joho/godotenv"
	flag "github.com/spf13/pflag"
)

// ticket-pass signs in to the ticketing API and writes the PDF pass (and
// optionally the QR image) of one of the user's tickets.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	email := flag.String("email", os.Getenv("EVENTIX_EMAIL"), "account email")
	password := flag.String("password", os.Getenv("EVENTIX_PASSWORD"), "account password")
	code := flag.StringP("code", "c", "", "ticket code")
	all := flag.Bool("all", false, "write a pass for every ticket of the account")
	outDir := flag.StringP("out", "o", ".", "output directory")
	withQR := flag.Bool("qr", false, "also write the QR code as PNG")
	flag.Parse()

	log := logger.NewNopLogger()
	if *email == "" || *password == "" || (*code == "" && !*all) {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	client := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.Timeout, log)
	user, creds, err := client.Login(ctx, *email, *password)
	if err != nil {
		fail("sign in: %s", backend.MessageOf(err, err.Error()))
	}
	ctx = backend.WithCredentials(ctx, creds)
	svc := tickets.NewService(client, log)

	codes := []string{*code}
	if *all {
		codes = codes[:0]
		for _, entry := range svc.ListForUser(ctx, *user) {
			codes = append(codes, entry.TicketCode)
		}
	}
	if err := os.MkdirAll(*outDir, 0755); err != nil {
		fail("create %s: %v", *outDir, err)
	}

	for _, c := range codes {
		pdf, err := svc.Pass(ctx, *user, c)
		if err != nil {
			fail("ticket %s: %s", c, backend.MessageOf(err, err.Error()))
		}
		write(filepath.Join(*outDir, fmt.Sprintf("ticket-%s.pdf", c)), pdf)

		if *withQR {
			png, err := svc.QR(ctx, *user, c)
			if err != nil {
				fail("ticket %s: %v", c, err)
			}
			write(filepath.Join(*outDir, fmt.Sprintf("ticket-%s.png", c)), png)
		}
	}
	fmt.Printf("%d ticket(s) written to %s\n", len(codes), *outDir)
}

func write(path string, data []byte) {
	if err := os.WriteFile(path, data, 0644); err != nil {
		fail("write %s: %v", path, err)
	}
	fmt.Println(path)
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "ticket-pass: "+format+"\n", args...)
	os.Exit(1)
}
