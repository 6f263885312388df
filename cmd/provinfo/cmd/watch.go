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
	"path/filepath"
	"time"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/blacktop/provinfo/internal/colors"
	"github.com/blacktop/provinfo/internal/commands/profile"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(watchCmd)
}

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:           "watch [dir]",
	Aliases:       []string{"w"},
	Short:         "Watch a directory for new or changed provisioning profiles",
	Args:          cobra.MaximumNArgs(1),
	SilenceErrors: true,
	Example: heredoc.Doc(`
		# Print a line whenever Xcode installs or refreshes a profile
		$ provinfo watch

		# Watch a build output directory
		$ provinfo watch ./build/profiles
	`),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := conf.ProfilesDir
		if len(args) > 0 {
			dir = args[0]
		}
		dir, err := filepath.Abs(dir)
		if err != nil {
			return err
		}

		dec, err := newDecoder()
		if err != nil {
			return err
		}

		ctx := cmd.Context()

		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return err
		}
		defer watcher.Close()

		go func() {
			for {
				select {
				case event, ok := <-watcher.Events:
					if !ok {
						return
					}
					if !profile.IsProfile(event.Name) {
						continue
					}
					if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
						log.Infof("removed: %s", event.Name)
						continue
					}
					if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
						continue
					}
					entry, err := profile.Load(dec, event.Name)
					if err != nil {
						// Write events fire before the file is complete
						log.WithError(err).Debug("skipping event")
						continue
					}
					line := profile.SummaryLine(entry, time.Now())
					if entry.Profile.IsExpired(time.Now()) {
						line = colors.Red().Sprint(line)
					}
					log.WithField("file", filepath.Base(event.Name)).Info(line)
				case err, ok := <-watcher.Errors:
					if !ok {
						return
					}
					log.Errorf("error: %v", err)
				}
			}
		}()

		if err := watcher.Add(dir); err != nil {
			return err
		}

		log.Infof("Watching %s for provisioning profile changes...", dir)

		<-ctx.Done()

		return watcher.Close()
	},
}
