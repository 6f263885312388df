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
	"os"
	"slices"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/blacktop/provinfo/internal/commands/profile"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(lsCmd)

	lsCmd.Flags().Bool("expired", false, "only list expired profiles")
	lsCmd.Flags().StringP("device", "d", "", "only list profiles that provision this device UDID")
	lsCmd.Flags().String("profiles-dir", "", "directory to scan (default is ~/Library/MobileDevice/Provisioning Profiles)")
	viper.BindPFlag("ls.expired", lsCmd.Flags().Lookup("expired"))
	viper.BindPFlag("ls.device", lsCmd.Flags().Lookup("device"))
	viper.BindPFlag("profiles-dir", lsCmd.Flags().Lookup("profiles-dir"))
}

// lsCmd represents the ls command
var lsCmd = &cobra.Command{
	Use:           "ls [dir]",
	Aliases:       []string{"list"},
	Short:         "List installed provisioning profiles",
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	Example: heredoc.Doc(`
		# List the profiles Xcode installed
		$ provinfo ls

		# Profiles that can run on a given device
		$ provinfo ls --device 00008110-000A1C2E3F4A801E

		# Expired profiles in a custom directory
		$ provinfo ls --expired ./profiles
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := conf.ProfilesDir
		if len(args) > 0 {
			dir = args[0]
		}

		dec, err := newDecoder()
		if err != nil {
			return err
		}
		entries, err := profile.Scan(dec, dir)
		if err != nil {
			return err
		}

		now := time.Now()
		onlyExpired := viper.GetBool("ls.expired")
		device := viper.GetString("ls.device")
		entries = slices.DeleteFunc(entries, func(e *profile.Entry) bool {
			if onlyExpired && !e.Profile.IsExpired(now) {
				return true
			}
			return device != "" && !e.Profile.ProvisionsDevice(device)
		})

		if len(entries) == 0 {
			log.Warnf("no provisioning profiles found in %s", dir)
			return nil
		}

		profile.SortByExpiration(entries)
		return profile.Table(os.Stdout, entries, now)
	},
}
