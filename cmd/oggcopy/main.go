// Command oggcopy copies an ogg stream from stdin to stdout, page by
// page, using the package's legacy page-oriented codec.
//
//	oggcopy < a.ogg > b.ogg
package main

import (
	"errors"
	"flag"
	"io"
	"log"
	"os"

	"github.com/voskhod-av/oggframe"
)

func main() {
	flag.Parse()

	if err := run(os.Stdin, os.Stdout); err != nil {
		log.Fatal(err)
	}
}

func run(r io.Reader, w io.Writer) error {
	decoder := ogg.NewPageDecoder(r)

	page, _, err := decoder.Decode()
	if err != nil {
		return err
	}
	encoder := ogg.NewPageEncoder(page.Serial, w)
	if err := encoder.EncodeBOS(page.Granule, page.Packets); err != nil {
		return err
	}

	for {
		page, _, err := decoder.Decode()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if page.Type&ogg.EOS == ogg.EOS {
			return encoder.EncodeEOS(page.Granule, page.Packets)
		}
		if err := encoder.Encode(page.Granule, page.Packets); err != nil {
			return err
		}
	}
}
