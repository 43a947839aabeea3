package main

import (
	"github.com/spf13/cobra"
)

var membersCmd = &cobra.Command{
	Use:   "members FILE",
	Short: "List the .iwa members of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  membersFunc,
}

func membersFunc(cmd *cobra.Command, args []string) error {
	doc, log, err := openDocument(cmd, args[0])
	if err != nil {
		return err
	}
	defer log.Sync()
	defer doc.Close()

	for _, name := range doc.Members() {
		cmd.Println(name)
	}
	return nil
}
