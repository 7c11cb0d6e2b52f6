// Package main writes a development CA and auth server certificate into a
// directory. Point the server's -tls-cert/-tls-key at server.crt/server.key
// and the client's server.ca_file at ca.crt.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/atinyakov/chatdemo/internal/certgen"
)

func main() {
	dir := flag.String("dir", "certs", "output directory")
	hosts := flag.String("hosts", "localhost,127.0.0.1", "comma separated server host names and IPs")
	flag.Parse()

	if err := run(*dir, splitHosts(*hosts)); err != nil {
		log.Fatal(err)
	}
	fmt.Printf("Certificates generated into %s\n", *dir)
}

func run(dir string, hosts []string) error {
	b, err := certgen.GenerateBundle(hosts)
	if err != nil {
		return err
	}
	return b.WriteFiles(dir)
}

func splitHosts(s string) []string {
	var out []string
	for _, h := range strings.Split(s, ",") {
		if h = strings.TrimSpace(h); h != "" {
			out = append(out, h)
		}
	}
	return out
}
