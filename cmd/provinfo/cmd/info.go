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
	"context"
	"fmt"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/blacktop/provinfo/internal/colors"
	"github.com/blacktop/provinfo/internal/commands/profile"
	"github.com/blacktop/provinfo/pkg/provision"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().StringP("format", "f", "text", "output format (text, json, yaml)")
	infoCmd.Flags().BoolP("signers", "s", false, "include the certificates that signed the profile")
	viper.BindPFlag("format", infoCmd.Flags().Lookup("format"))
	viper.BindPFlag("info.signers", infoCmd.Flags().Lookup("signers"))
}

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:           "info <profile>...",
	Aliases:       []string{"i"},
	Short:         "Dump provisioning profile information",
	Args:          cobra.MinimumNArgs(1),
	SilenceErrors: true,
	Example: heredoc.Doc(`
		# Show a profile and its developer certificates
		$ provinfo info embedded.mobileprovision

		# Dump as JSON (entitlements use the tagged encoding)
		$ provinfo info --format json embedded.mobileprovision | jq .profile.entitlements

		# Include the signing chain of the profile itself
		$ provinfo info --signers --format yaml embedded.mobileprovision
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		dec, err := newDecoder()
		if err != nil {
			return err
		}
		ext, err := newExtractor()
		if err != nil {
			return err
		}
		withSigners := viper.GetBool("info.signers")
		now := time.Now()

		for i, path := range args {
			entry, err := profile.Load(dec, path)
			if err != nil {
				return err
			}

			certs, err := developerCertificates(cmd.Context(), ext, entry.Profile.DeveloperCertificates)
			if err != nil {
				return err
			}

			var signers []*provision.Certificate
			if withSigners {
				signers, err = envelopeSigners(ext, entry.Data)
				if err != nil {
					return fmt.Errorf("failed to read signers of '%s': %w", path, err)
				}
			}

			switch conf.Format {
			case "json", "yaml":
				out := profile.NewOutput(entry.Profile, certs)
				if len(args) > 1 {
					out.Path = path
				}
				for _, s := range signers {
					out.Signers = append(out.Signers, profile.NewOutputCertificate(s))
				}
				if conf.Format == "json" {
					data, err := profile.JSON(out)
					if err != nil {
						return err
					}
					if err := profile.PrintJSON(os.Stdout, data); err != nil {
						return err
					}
					continue
				}
				data, err := profile.YAML(out)
				if err != nil {
					return err
				}
				if i > 0 {
					fmt.Println("---")
				}
				os.Stdout.Write(data)
			default:
				if len(args) > 1 {
					if i > 0 {
						fmt.Println()
					}
					fmt.Printf("%s\n\n", colors.Faint().Sprint(path))
				}
				fmt.Print(profile.Text(entry.Profile, certs, now))
				for n, s := range signers {
					fmt.Printf("\n==== Signer #%d\n\n", n+1)
					fmt.Print(profile.CertificateText(s))
				}
			}
		}

		return nil
	},
}

// developerCertificates extracts every blob, skipping the ones that fail.
// It only errors when ctx is cancelled.
func developerCertificates(ctx context.Context, ext *provision.Extractor, blobs [][]byte) ([]*provision.Certificate, error) {
	var certs []*provision.Certificate
	for n, res := range ext.ExtractAll(ctx, blobs) {
		if res.Err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.WithError(res.Err).Warnf("failed to extract developer certificate #%d", n+1)
			continue
		}
		certs = append(certs, res.Certificate)
	}
	return certs, nil
}

func envelopeSigners(ext *provision.Extractor, data []byte) ([]*provision.Certificate, error) {
	chain, err := provision.EnvelopeSigners(data)
	if err != nil {
		return nil, err
	}
	var out []*provision.Certificate
	for _, c := range chain {
		cert, err := ext.Extract(c.Raw)
		if err != nil {
			log.WithError(err).Warnf("failed to extract signer %s", c.Subject.CommonName)
			continue
		}
		out = append(out, cert)
	}
	return out, nil
}
