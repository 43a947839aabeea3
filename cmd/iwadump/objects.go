package main

import (
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
)

var objectsCmd = &cobra.Command{
	Use:   "objects FILE",
	Short: "List the archived objects of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  objectsFunc,
}

func objectsFunc(cmd *cobra.Command, args []string) error {
	doc, log, err := openDocument(cmd, args[0])
	if err != nil {
		return err
	}
	defer log.Sync()
	defer doc.Close()

	out := tablewriter.NewWriter(cmd.OutOrStdout())
	out.SetHeader([]string{"ID", "Type", "Member", "Length", "Refs"})
	out.SetAutoWrapText(false)

	for _, id := range doc.ObjectIDs() {
		obj, member, err := doc.Object(id)
		if err != nil {
			return err
		}
		var length int64
		if len(obj.Payloads) > 0 {
			length = obj.Payloads[0].Len()
		}
		out.Append([]string{
			strconv.FormatUint(obj.ID, 10),
			strconv.FormatUint(uint64(obj.Type), 10),
			member,
			strconv.FormatInt(length, 10),
			strconv.Itoa(len(obj.ObjectRefs)),
		})
	}

	out.Render()
	return nil
}
