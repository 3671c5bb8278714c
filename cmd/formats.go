/*
Copyright © 2025 ttylabs
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/ttylabs/serialpcap/encap"
)

// formatsCmd represents the formats command
var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported link types and frame encapsulations",
	Long: `List the pcap link types serialpcap can write and the frame
encapsulation each one selects.

Encapsulations:
  raw               - payload bytes written as-is, control lines dropped
  structured-serial - 12-byte header (timestamp, event type, control-line
                      bitmask) prepended to the payload

Link types without an encapsulation can still be captured with --force-raw.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("%-5s %-13s %s\n", "DLT", "Name", "Encapsulation")

		for _, name := range encap.LinkTypeNames() {
			lt, err := encap.ParseLinkType(name)
			if err != nil {
				continue
			}

			encapName := "-"
			if format, ok := encap.FormatFor(lt); ok {
				encapName = format.String()
			}

			fmt.Printf("%-5d %-13s %s\n", int(lt), name, encapName)
		}
	},
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}
