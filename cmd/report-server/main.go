// Command report-server runs the collection node that field instruments
// upload their diagnostic report bundles to.
package main

import (
	"flag"
	"log"
	"net/http"
	"os"

	"github.com/et-diagnostics/vibrascope/internal/report"
)

var (
	listen    = flag.String("listen", ":5000", "Listen address")
	uploadDir = flag.String("dir", "received_reports", "Directory for received reports")
	apiKey    = flag.String("key", "", "API token (falls back to ET_API_KEY)")
	certFile  = flag.String("cert", "cert.pem", "TLS certificate (HTTP when missing)")
	keyFile   = flag.String("tls-key", "key.pem", "TLS private key (HTTP when missing)")
)

func main() {
	flag.Parse()

	srv, err := report.NewServer(*uploadDir, *apiKey)
	if err != nil {
		log.Fatalf("starting server: %v", err)
	}

	mux := srv.ServeMux()
	if fileExists(*certFile) && fileExists(*keyFile) {
		log.Printf("serving HTTPS on %s, reports stored under %s", *listen, *uploadDir)
		log.Fatal(http.ListenAndServeTLS(*listen, *certFile, *keyFile, mux))
	}

	log.Printf("WARNING: TLS certs not found, serving HTTP on %s", *listen)
	log.Fatal(http.ListenAndServe(*listen, mux))
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
