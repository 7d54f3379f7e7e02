package assembler

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// update writes an incremental update section after the original bytes
type update struct {
	out     bytes.Buffer
	next    int
	offsets map[int]xrefEntry
}

type xrefEntry struct {
	offset     int
	generation int
}

func newUpdate(original []byte, size int) *update {
	u := &update{next: size, offsets: make(map[int]xrefEntry)}
	u.out.Write(original)
	if !bytes.HasSuffix(original, []byte("\n")) {
		u.out.WriteByte('\n')
	}
	return u
}

func (u *update) begin(n, gen int) {
	u.offsets[n] = xrefEntry{offset: u.out.Len(), generation: gen}
	fmt.Fprintf(&u.out, "%d %d obj\n", n, gen)
}

// addObject writes a new object and returns its number
func (u *update) addObject(body string) int {
	n := u.next
	u.next++
	u.begin(n, 0)
	u.out.WriteString(body)
	u.out.WriteString("\nendobj\n")
	return n
}

// addStream writes an uncompressed stream. entries go inside the dictionary.
func (u *update) addStream(entries string, data []byte) int {
	n := u.next
	u.next++
	u.begin(n, 0)
	fmt.Fprintf(&u.out, "<<%s /Length %d>>\nstream\n", entries, len(data))
	u.out.Write(data)
	u.out.WriteString("\nendstream\nendobj\n")
	return n
}

// replace writes a new version of an existing object
func (u *update) replace(n, gen int, body string) {
	u.begin(n, gen)
	u.out.WriteString(body)
	u.out.WriteString("\nendobj\n")
}

// finish writes the cross reference section and trailer
func (u *update) finish(prev int, root types.IndirectRef, info *types.IndirectRef, id string) []byte {
	nums := make([]int, 0, len(u.offsets))
	for n := range u.offsets {
		nums = append(nums, n)
	}
	sort.Ints(nums)

	xref := u.out.Len()
	u.out.WriteString("xref\n")
	for i := 0; i < len(nums); {
		j := i
		for j+1 < len(nums) && nums[j+1] == nums[j]+1 {
			j++
		}
		fmt.Fprintf(&u.out, "%d %d\n", nums[i], j-i+1)
		for _, n := range nums[i : j+1] {
			e := u.offsets[n]
			fmt.Fprintf(&u.out, "%010d %05d n\r\n", e.offset, e.generation)
		}
		i = j + 1
	}

	fmt.Fprintf(&u.out, "trailer\n<</Size %d /Root %d %d R", u.next, root.ObjectNumber, root.GenerationNumber)
	if info != nil {
		fmt.Fprintf(&u.out, " /Info %d %d R", info.ObjectNumber, info.GenerationNumber)
	}
	fmt.Fprintf(&u.out, " /Prev %d /ID [<%s> <%s>]>>\n", prev, id, id)
	fmt.Fprintf(&u.out, "startxref\n%d\n%%%%EOF\n", xref)

	return u.out.Bytes()
}
