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
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/blacktop/go-plist"
	"github.com/blacktop/provinfo/internal/commands/profile"
	"github.com/blacktop/provinfo/pkg/provision"
	"github.com/fxamacker/cbor/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(entCmd)

	entCmd.Flags().StringP("format", "f", "json", "output format (json, yaml, plist, cbor)")
	entCmd.Flags().BoolP("untagged", "u", false, "read/write plain JSON without type tags")
	viper.BindPFlag("ent.format", entCmd.Flags().Lookup("format"))
	viper.BindPFlag("ent.untagged", entCmd.Flags().Lookup("untagged"))
}

// entCmd represents the ent command
var entCmd = &cobra.Command{
	Use:   "ent <profile|ents.json|ents.cbor>",
	Short: "Dump or convert provisioning profile entitlements",
	Long: heredoc.Doc(`
		Dump the entitlements of a provisioning profile.

		Entitlements previously dumped as JSON or CBOR are converted back when
		the input file has a .json or .cbor extension.`),
	Args:          cobra.ExactArgs(1),
	SilenceErrors: true,
	Example: heredoc.Doc(`
		# Dump entitlements as tagged JSON
		$ provinfo ent embedded.mobileprovision

		# Dump as plain JSON
		$ provinfo ent --untagged embedded.mobileprovision | jq .

		# Round trip through CBOR back to a property list
		$ provinfo ent -f cbor embedded.mobileprovision > ents.cbor
		$ provinfo ent -f plist ents.cbor
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		untagged := viper.GetBool("ent.untagged")

		ents, err := loadEntitlements(args[0], untagged)
		if err != nil {
			return err
		}

		switch format := strings.ToLower(viper.GetString("ent.format")); format {
		case "json":
			var data []byte
			if untagged {
				data, err = json.MarshalIndent(ents.RawValue(), "", "  ")
			} else {
				data, err = json.MarshalIndent(ents, "", "  ")
			}
			if err != nil {
				return fmt.Errorf("failed to marshal json: %v", err)
			}
			return profile.PrintJSON(os.Stdout, data)
		case "yaml":
			data, err := profile.YAML(ents)
			if err != nil {
				return err
			}
			_, err = os.Stdout.Write(data)
			return err
		case "plist":
			v, err := ents.PlistValue()
			if err != nil {
				return err
			}
			data, err := plist.MarshalIndent(v, plist.XMLFormat, "\t")
			if err != nil {
				return fmt.Errorf("failed to marshal plist: %v", err)
			}
			fmt.Println(string(data))
		case "cbor":
			data, err := cbor.Marshal(ents)
			if err != nil {
				return fmt.Errorf("failed to marshal cbor: %v", err)
			}
			_, err = os.Stdout.Write(data)
			return err
		default:
			return fmt.Errorf("invalid --format %q (must be json, yaml, plist or cbor)", format)
		}

		return nil
	},
}

func loadEntitlements(path string, untagged bool) (provision.EntitlementsDictionary, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read entitlements: %v", err)
		}
		if untagged {
			return provision.ProbeEntitlementsJSON(data)
		}
		var ents provision.EntitlementsDictionary
		if err := json.Unmarshal(data, &ents); err != nil {
			return nil, err
		}
		return ents, nil
	case ".cbor":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read entitlements: %v", err)
		}
		var ents provision.EntitlementsDictionary
		if err := cbor.Unmarshal(data, &ents); err != nil {
			return nil, err
		}
		return ents, nil
	}

	dec, err := newDecoder()
	if err != nil {
		return nil, err
	}
	entry, err := profile.Load(dec, path)
	if err != nil {
		return nil, err
	}
	return entry.Profile.Entitlements, nil
}
