/*
Copyright © 2025 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"encoding/pem"
	"fmt"
	"os"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/blacktop/provinfo/internal/commands/profile"
	"github.com/blacktop/provinfo/pkg/provision"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(certCmd)

	certCmd.Flags().Bool("json", false, "output as JSON")
	viper.BindPFlag("cert.json", certCmd.Flags().Lookup("json"))
}

// certCmd represents the cert command
var certCmd = &cobra.Command{
	Use:           "cert <cert.der|cert.pem>",
	Aliases:       []string{"c"},
	Short:         "Dump developer certificate information",
	Args:          cobra.ExactArgs(1),
	SilenceErrors: true,
	Example: heredoc.Doc(`
		# Inspect a certificate exported from Keychain Access
		$ provinfo cert developer.cer

		# Every certificate of a PEM bundle, as JSON
		$ provinfo cert --json chain.pem
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read certificate: %v", err)
		}

		ext, err := newExtractor()
		if err != nil {
			return err
		}

		var certs []*provision.Certificate
		for _, der := range certificateBlobs(data) {
			c, err := ext.Extract(der)
			if err != nil {
				return err
			}
			certs = append(certs, c)
		}

		if viper.GetBool("cert.json") {
			out := make([]profile.OutputCertificate, 0, len(certs))
			for _, c := range certs {
				out = append(out, profile.NewOutputCertificate(c))
			}
			data, err := profile.JSON(out)
			if err != nil {
				return err
			}
			return profile.PrintJSON(os.Stdout, data)
		}

		for i, c := range certs {
			if i > 0 {
				fmt.Println()
			}
			fmt.Print(profile.CertificateText(c))
		}
		return nil
	},
}

// certificateBlobs returns the DER of every PEM certificate block in data,
// or data itself when it holds no PEM.
func certificateBlobs(data []byte) [][]byte {
	var blobs [][]byte
	rest := data
	for {
		var block *pem.Block
		block, rest = pem.Decode(rest)
		if block == nil {
			break
		}
		if block.Type == "CERTIFICATE" {
			blobs = append(blobs, block.Bytes)
		}
	}
	if len(blobs) == 0 {
		return [][]byte{data}
	}
	return blobs
}
