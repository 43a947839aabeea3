package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/spf13/cobra"

	"github.com/anirudhraja/iwalite"
	"github.com/anirudhraja/iwalite/registry"
	"github.com/anirudhraja/iwalite/wire"
)

const (
	typeFlag      = "type"
	protoPathFlag = "proto-path"
	protoFlag     = "proto"

	// nested payloads deeper than this are printed as bytes
	maxDumpDepth = 8
)

var (
	vMessageType string
	vProtoPaths  []string
	vProtoFiles  []string
)

var dumpCmd = &cobra.Command{
	Use:   "dump FILE ID",
	Short: "Dump one archived object",
	Long: `Dump one archived object. Without --type every field is printed with
its wire type, byte ranges and a best-effort value. With --type the object is
decoded with the named message from the --proto files and printed as JSON.`,
	Args: cobra.ExactArgs(2),
	RunE: dumpFunc,
}

func init() {
	flags := dumpCmd.Flags()
	flags.StringVar(&vMessageType, typeFlag, "", "Fully qualified message type of the object")
	flags.StringSliceVar(&vProtoPaths, protoPathFlag, nil, "Directories searched for .proto files and their imports")
	flags.StringSliceVar(&vProtoFiles, protoFlag, nil, ".proto files to load")
}

func dumpFunc(cmd *cobra.Command, args []string) error {
	id, err := strconv.ParseUint(args[1], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid object ID %q: %w", args[1], err)
	}

	var opts []iwalite.Option
	if vMessageType != "" {
		if len(vProtoFiles) == 0 {
			return fmt.Errorf("--%s requires at least one --%s", typeFlag, protoFlag)
		}
		reg := registry.NewRegistry(vProtoPaths)
		for _, f := range vProtoFiles {
			if err := reg.LoadSchemaFromFile(f); err != nil {
				return fmt.Errorf("failed to load %s: %w", f, err)
			}
		}
		opts = append(opts, iwalite.WithRegistry(reg))
	}

	doc, log, err := openDocument(cmd, args[0], opts...)
	if err != nil {
		return err
	}
	defer log.Sync()
	defer doc.Close()

	if vMessageType != "" {
		decoded, err := doc.Decode(id, vMessageType)
		if err != nil {
			return err
		}
		b, err := json.MarshalIndent(decoded, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
		cmd.Println(string(b))
		return nil
	}

	obj, member, err := doc.Object(id)
	if err != nil {
		return err
	}
	cmd.Printf("object %d type %d in %s\n", obj.ID, obj.Type, member)

	m, err := doc.Message(id)
	if err != nil {
		return err
	}
	dumpMessage(cmd.OutOrStdout(), m, 0)
	return nil
}

// dumpMessage prints every field of m without a schema
func dumpMessage(w io.Writer, m *wire.Message, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range m.Fields() {
		wt, _ := m.WireType(n)
		ranges := m.Ranges(n)
		spans := make([]string, 0, len(ranges))
		for _, r := range ranges {
			spans = append(spans, fmt.Sprintf("[%d,%d)", r.Start, r.End))
		}
		fmt.Fprintf(w, "%s%d %s %s\n", indent, n, wt, strings.Join(spans, " "))
		dumpValues(w, m, n, wt, depth+1)
	}
	if err := m.ScanError(); err != nil {
		fmt.Fprintf(w, "%s! %v\n", indent, err)
	}
}

func dumpValues(w io.Writer, m *wire.Message, n wire.FieldNumber, wt wire.WireType, depth int) {
	indent := strings.Repeat("  ", depth)
	var (
		values []string
		err    error
	)

	switch wt {
	case wire.WireVarint:
		var f *wire.Field[uint64]
		f, err = m.Uint64(n)
		for _, v := range f.Values() {
			values = append(values, strconv.FormatUint(v, 10))
		}
	case wire.WireFixed64:
		var f *wire.Field[uint64]
		f, err = m.Fixed64(n)
		for _, v := range f.Values() {
			values = append(values, fmt.Sprintf("%#016x", v))
		}
	case wire.WireFixed32:
		var f *wire.Field[uint32]
		f, err = m.Fixed32(n)
		for _, v := range f.Values() {
			values = append(values, fmt.Sprintf("%#08x", v))
		}
	case wire.WireBytes:
		var f *wire.Field[[]byte]
		f, err = m.Bytes(n)
		for _, v := range f.Values() {
			if depth < maxDumpDepth {
				if nested := wire.Parse(v); len(v) > 0 && nested.ScanError() == nil {
					fmt.Fprintf(w, "%s{\n", indent)
					dumpMessage(w, nested, depth+1)
					fmt.Fprintf(w, "%s}\n", indent)
					continue
				}
			}
			values = append(values, formatBytes(v))
		}
	}

	for _, v := range values {
		fmt.Fprintf(w, "%s%s\n", indent, v)
	}
	if err != nil {
		fmt.Fprintf(w, "%s! %v\n", indent, err)
	}
}

func formatBytes(b []byte) string {
	if utf8.Valid(b) {
		return strconv.Quote(string(b))
	}
	return hex.EncodeToString(b)
}
