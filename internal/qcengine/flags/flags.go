// Package flags defines the closed flag-token vocabulary shared by every
// stage of the QC pipeline and the (BitSet, ordered tokens) representation
// used to accumulate them without re-parsing a comma-separated string on
// every append.
package flags

import "strings"

// Kind identifies one token in the closed flag vocabulary. The zero value is
// not a valid flag; always use the named constants.
type Kind uint8

const (
	_ Kind = iota
	M       // Missing value.
	ERR     // Corrupted/non-numeric value after coercion.
	V       // Record lies within a field-visit window.
	R       // Hard (physical-limit) breach.
	C       // Soft (caution-limit) breach.
	T       // Sensor tilt within caution range; or tilt-dependent dependency.
	E       // Sensor-encoded error sentinel.
	NV      // No valid derivation possible.
	DZ      // Divide-by-zero / denominator too small.
	SF      // Snow reading during snow-free calendar period.
	Z       // Nonzero radiation outside daylight.
	BV      // Propagated from battery-voltage R.
	PT      // Propagated from panel-temperature R.
	LR      // Logger restart on this row.
	DF      // Dependency failure.
	DC      // Dependency caution.
	SU      // Value suspicious / out of expected range.
	NW      // Reserved alias of NV in some legacy rules.
	P       // Pass.

	numKinds
)

var names = [numKinds]string{
	M:   "M",
	ERR: "ERR",
	V:   "V",
	R:   "R",
	C:   "C",
	T:   "T",
	E:   "E",
	NV:  "NV",
	DZ:  "DZ",
	SF:  "SF",
	Z:   "Z",
	BV:  "BV",
	PT:  "PT",
	LR:  "LR",
	DF:  "DF",
	DC:  "DC",
	SU:  "SU",
	NW:  "NW",
	P:   "P",
}

var byName map[string]Kind

func init() {
	byName = make(map[string]Kind, numKinds)
	for k := Kind(1); k < numKinds; k++ {
		byName[names[k]] = k
	}
}

// String renders the token text for a flag kind.
func (k Kind) String() string {
	if k == 0 || int(k) >= len(names) {
		return ""
	}
	return names[k]
}

// Lookup resolves a token string (already trimmed) to a Kind. The second
// return is false for unknown tokens, blank tokens, and the literal strings
// "nan"/"none" (case-insensitive), which Stage I's dedup pass drops.
func Lookup(token string) (Kind, bool) {
	token = strings.TrimSpace(token)
	if token == "" {
		return 0, false
	}
	switch strings.ToLower(token) {
	case "nan", "none":
		return 0, false
	}
	k, ok := byName[token]
	return k, ok
}

// Reserved reports whether a kind is a single-token reserved state (M, ERR)
// that, per invariant 6, does not accumulate further non-exempt tokens.
func Reserved(k Kind) bool {
	return k == M || k == ERR
}

// bitSet is a fixed-width bitset over the closed Kind vocabulary. numKinds is
// small (< 32) so a single uint32 suffices; this mirrors the Design Notes'
// replacement for regex-based whole-word flag matching.
type bitSet uint32

func (b bitSet) has(k Kind) bool { return b&(1<<uint(k)) != 0 }
func (b *bitSet) add(k Kind)     { *b |= 1 << uint(k) }

// Cell is an ordered set of flag tokens: insertion order is preserved for
// serialization (invariant 5), while membership tests go through the bitset
// so Has is O(1) regardless of how many tokens have accumulated.
type Cell struct {
	bits   bitSet
	tokens []Kind
}

// NewCell returns an empty flag cell.
func NewCell() Cell { return Cell{} }

// Has reports whether the cell already contains the given token.
func (c Cell) Has(k Kind) bool { return c.bits.has(k) }

// Empty reports whether the cell carries no tokens at all.
func (c Cell) Empty() bool { return len(c.tokens) == 0 }

// Add appends a token if not already present, preserving first-seen order.
// It does not check whether the cell is in a reserved single-token state;
// which tokens may join a reserved cell varies by stage, so stage code
// checks the cell itself before calling Add.
func (c *Cell) Add(k Kind) {
	if c.bits.has(k) {
		return
	}
	c.bits.add(k)
	c.tokens = append(c.tokens, k)
}

// Set replaces the cell's contents with a single reserved token, discarding
// anything previously present. Used by the Normalizer for ERR, which
// overwrites any prior token per §4.1 step 2.
func (c *Cell) Set(k Kind) {
	c.bits = 0
	c.tokens = c.tokens[:0]
	c.bits.add(k)
	c.tokens = append(c.tokens, k)
}

// Reset clears the cell entirely.
func (c *Cell) Reset() {
	c.bits = 0
	c.tokens = nil
}

// Tokens returns the ordered token list. Callers must not mutate the
// returned slice.
func (c Cell) Tokens() []Kind { return c.tokens }

// String renders the cell as a comma-and-space separated token list, e.g.
// "C, Z, T". An empty cell renders as "".
func (c Cell) String() string {
	if len(c.tokens) == 0 {
		return ""
	}
	parts := make([]string, len(c.tokens))
	for i, k := range c.tokens {
		parts[i] = k.String()
	}
	return strings.Join(parts, ", ")
}

// ParseCell splits a raw flag-cell string on commas, trims each token, drops
// blanks and "nan"/"none" (any case), and rebuilds a Cell with unique,
// first-seen-order tokens. This is Stage I's normalization algorithm
// (§4.9) but is also used at ingestion time to seed a Cell from a
// round-tripped CSV value.
func ParseCell(raw string) Cell {
	var c Cell
	for _, part := range strings.Split(raw, ",") {
		k, ok := Lookup(part)
		if !ok {
			continue
		}
		c.Add(k)
	}
	return c
}
