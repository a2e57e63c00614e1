//go:build ignore

// Analyze-capture summarizes a raw byte capture of a device output: which
// messages it holds, how often, and how much of the stream was garbage.
//
// Usage:
//
//	go run tools/analyze-capture.go capture.bin [-dump]
//
// With -dump, the first payload of every message id is printed as 32-bit
// little-endian words to help lay out logs that have no decoder yet.
package main

import (
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"slices"

	"github.com/muurk/sbgecom/internal/logs"
	"github.com/muurk/sbgecom/internal/protocol"
)

// chunkSize mimics the reads of a serial port.
const chunkSize = 64

type summary struct {
	count   int
	bytes   int
	errors  int
	first   []byte
	decoded string
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: analyze-capture <capture-file> [-dump]")
		os.Exit(1)
	}
	dump := len(os.Args) > 2 && os.Args[2] == "-dump"

	data, err := os.ReadFile(os.Args[1])
	if err != nil {
		fmt.Printf("Error reading file: %v\n", err)
		os.Exit(1)
	}

	dec := protocol.NewDecoder()
	seen := make(map[protocol.CommandID]*summary)
	for off := 0; off < len(data); off += chunkSize {
		dec.Feed(data[off:min(off+chunkSize, len(data))])
		for f := range dec.Frames() {
			s, ok := seen[f.ID]
			if !ok {
				s = &summary{first: f.Payload}
				seen[f.ID] = s
			}
			s.count++
			s.bytes += len(f.Payload)
			l, err := logs.Decode(f.ID, f.Payload)
			if err != nil {
				s.errors++
			} else if s.decoded == "" {
				s.decoded = l.String()
			}
		}
	}

	st := dec.Stats()
	fmt.Printf("=== Capture analysis ===\n")
	fmt.Printf("File:       %s (%d bytes)\n", os.Args[1], len(data))
	fmt.Printf("Frames:     %d\n", st.Frames)
	fmt.Printf("CRC errors: %d\n", st.ChecksumErrors)
	fmt.Printf("Malformed:  %d\n", st.MalformedFrames)
	fmt.Printf("Skipped:    %d bytes\n", st.DiscardedBytes)
	fmt.Printf("Leftover:   %d bytes\n\n", dec.Buffered())

	ids := make([]protocol.CommandID, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	fmt.Printf("%-28s %8s %10s %8s\n", "MESSAGE", "COUNT", "BYTES", "ERRORS")
	for _, id := range ids {
		s := seen[id]
		fmt.Printf("%-28s %8d %10d %8d\n", id, s.count, s.bytes, s.errors)
	}

	for _, id := range ids {
		s := seen[id]
		if s.decoded != "" {
			fmt.Printf("\n%s first: %s\n", id, s.decoded)
		}
		if dump {
			fmt.Printf("\n%s first payload (%d bytes):\n", id, len(s.first))
			dumpWords(s.first)
		}
	}
}

func dumpWords(payload []byte) {
	fmt.Println("Offset  Hex        Decimal       Float")
	for i := 0; i+4 <= len(payload); i += 4 {
		word := binary.LittleEndian.Uint32(payload[i : i+4])
		fmt.Printf("[%02d-%02d] 0x%08x %13d %g\n", i, i+3, word, word, math.Float32frombits(word))
	}
	if rem := len(payload) % 4; rem > 0 {
		start := len(payload) - rem
		fmt.Printf("[%02d-%02d] tail: % x\n", start, len(payload)-1, payload[start:])
	}
}
