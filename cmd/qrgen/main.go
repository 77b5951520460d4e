// Command qrgen renders the printable QR tags for a game's physical tasks.
//
// Each argument is a taskId:qrId pair (both visible in the admin UI after
// the game starts). One PNG per pair is written to the output directory,
// named after the QR id.
//
//	qrgen -game k3x9q2p1m8a7b5c -out ./tags b8d2f4a1c7e9h3j:qr_001 m5n1p6q2r8s4t7u:qr_002
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"github.com/tripleaaa123/amongusfr/internal/config"
	"github.com/tripleaaa123/amongusfr/internal/security"
)

func main() {
	gameID := flag.String("game", "", "game record id")
	outDir := flag.String("out", "qr-tags", "output directory for PNG files")
	size := flag.Int("size", 512, "image size in pixels")
	flag.Parse()

	if *gameID == "" || flag.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "usage: qrgen -game <gameId> [-out dir] taskId:qrId [taskId:qrId ...]")
		os.Exit(2)
	}

	cfg := config.Load()
	tokens := security.NewTokenManager(cfg.JWTSecret)

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		log.Fatalf("failed to create output directory: %v", err)
	}

	for _, arg := range flag.Args() {
		taskID, qrID, ok := strings.Cut(arg, ":")
		if !ok || taskID == "" || qrID == "" {
			log.Fatalf("invalid pair %q (expected taskId:qrId)", arg)
		}

		token, err := tokens.IssueScan(*gameID, taskID, qrID, config.ScanTokenTTL)
		if err != nil {
			log.Fatalf("failed to sign token for %s: %v", qrID, err)
		}

		path := filepath.Join(*outDir, qrID+".png")
		if err := qrcode.WriteFile(token, qrcode.Medium, *size, path); err != nil {
			log.Fatalf("failed to write %s: %v", path, err)
		}
		fmt.Printf("wrote %s\n", path)
	}
}
