package crop

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/mapcrafter-go/mapcrafter/internal/validate"
)

// BlockState describes whether all, none, or some blocks with a given id
// are hidden, independent of the rest of their block data (§3).
type BlockState int

const (
	CompletelyHidden BlockState = iota
	CompletelyShown
	PartiallyHiddenShown
)

func (s BlockState) String() string {
	switch s {
	case CompletelyHidden:
		return "COMPLETELY_HIDDEN"
	case CompletelyShown:
		return "COMPLETELY_SHOWN"
	default:
		return "PARTIALLY_HIDDEN_SHOWN"
	}
}

const (
	maskWords = 65536 * 16 / 64
)

// BlockMask is a 65536x16 bitset indexed by (id, data nibble), recording
// whether a given block id/data combination is shown. A per-id summary is
// kept alongside so isHidden can usually avoid touching the bitset at all.
type BlockMask struct {
	bits   [maskWords]uint64
	states [65536]BlockState

	// tokens preserves the exact grammar tokens this mask was loaded
	// from, so it can be re-emitted token-by-token (§8 testable property).
	tokens []string
}

// NewBlockMask returns a mask with every block hidden, matching the zero
// value a freshly constructed mask has before any token is applied.
func NewBlockMask() *BlockMask {
	m := &BlockMask{}
	for i := range m.states {
		m.states[i] = CompletelyHidden
	}
	return m
}

func bitIndex(id uint16, data uint8) int {
	return int(id)*16 + int(data&0xF)
}

func (m *BlockMask) getBit(idx int) bool {
	return m.bits[idx/64]&(uint64(1)<<uint(idx%64)) != 0
}

func (m *BlockMask) setBit(idx int, shown bool) {
	word, bit := idx/64, uint(idx%64)
	if shown {
		m.bits[word] |= uint64(1) << bit
	} else {
		m.bits[word] &^= uint64(1) << bit
	}
}

// Set marks every (id, data) combination shown or hidden, independent of data.
func (m *BlockMask) Set(id uint16, shown bool) {
	for d := 0; d < 16; d++ {
		m.setBit(bitIndex(id, uint8(d)), shown)
	}
	m.updateBlockState(id)
}

// SetData marks a single (id, data) combination shown or hidden.
func (m *BlockMask) SetData(id uint16, data uint8, shown bool) {
	m.setBit(bitIndex(id, data), shown)
	m.updateBlockState(id)
}

// SetMasked marks shown/hidden every (id, d) where (d & bitmask) == (data & bitmask).
func (m *BlockMask) SetMasked(id uint16, data, bitmask uint8, shown bool) {
	for d := 0; d < 16; d++ {
		if uint8(d)&bitmask == data&bitmask {
			m.setBit(bitIndex(id, uint8(d)), shown)
		}
	}
	m.updateBlockState(id)
}

// SetRange marks every id in [id1, id2] shown or hidden.
func (m *BlockMask) SetRange(id1, id2 uint16, shown bool) {
	for id := int(id1); id <= int(id2); id++ {
		m.Set(uint16(id), shown)
	}
}

// SetAll marks every block id/data combination shown or hidden.
func (m *BlockMask) SetAll(shown bool) {
	var fill uint64
	if shown {
		fill = ^uint64(0)
	}
	for i := range m.bits {
		m.bits[i] = fill
	}
	state := CompletelyHidden
	if shown {
		state = CompletelyShown
	}
	for i := range m.states {
		m.states[i] = state
	}
}

// updateBlockState recomputes the summary for id from its 16 data bits.
func (m *BlockMask) updateBlockState(id uint16) {
	base := bitIndex(id, 0)
	allSet, allClear := true, true
	for d := 0; d < 16; d++ {
		if m.getBit(base + d) {
			allClear = false
		} else {
			allSet = false
		}
	}
	switch {
	case allSet:
		m.states[id] = CompletelyShown
	case allClear:
		m.states[id] = CompletelyHidden
	default:
		m.states[id] = PartiallyHiddenShown
	}
}

// GetBlockState returns the summary for id.
func (m *BlockMask) GetBlockState(id uint16) BlockState {
	return m.states[id]
}

// IsHidden reports whether a block with id/data is hidden, consulting the
// summary first and only touching the bitset when the id is PARTIALLY.
func (m *BlockMask) IsHidden(id uint16, data uint8) bool {
	switch m.states[id] {
	case CompletelyHidden:
		return true
	case CompletelyShown:
		return false
	default:
		return !m.getBit(bitIndex(id, data))
	}
}

// InvalidBlockMaskSpecError reports a malformed token in a block mask
// string definition (§4.4).
type InvalidBlockMaskSpecError struct {
	Token string
}

func (e *InvalidBlockMaskSpecError) Error() string {
	return fmt.Sprintf("invalid block mask token %q", e.Token)
}

var (
	reMaskedData = regexp.MustCompile(`^(\d+):(\d+)b(\d+)$`)
	reSingleData = regexp.MustCompile(`^(\d+):(\d+)$`)
	reRange      = regexp.MustCompile(`^(\d+)-(\d+)$`)
	reSingleID   = regexp.MustCompile(`^(\d+)$`)
)

// applyToken parses and applies a single grammar token (§4.4: token :=
// '!'? atom, atom := '*' | id | id ':' data | id ':' data 'b' mask |
// id '-' id) to m, returning an error if the token is malformed.
func applyToken(m *BlockMask, tok string) error {
	shown := true
	atom := tok
	if strings.HasPrefix(atom, "!") {
		shown = false
		atom = atom[1:]
	}

	switch {
	case atom == "*":
		m.SetAll(shown)
	case reMaskedData.MatchString(atom):
		g := reMaskedData.FindStringSubmatch(atom)
		id, okID := parseID(g[1])
		data, okData := parseByte(g[2])
		mask, okMask := parseByte(g[3])
		if !okID || !okData || !okMask {
			return &InvalidBlockMaskSpecError{Token: tok}
		}
		m.SetMasked(id, data, mask, shown)
	case reSingleData.MatchString(atom):
		g := reSingleData.FindStringSubmatch(atom)
		id, okID := parseID(g[1])
		data, okData := parseByte(g[2])
		if !okID || !okData {
			return &InvalidBlockMaskSpecError{Token: tok}
		}
		m.SetData(id, data, shown)
	case reRange.MatchString(atom):
		g := reRange.FindStringSubmatch(atom)
		id1, ok1 := parseID(g[1])
		id2, ok2 := parseID(g[2])
		if !ok1 || !ok2 || id1 > id2 {
			return &InvalidBlockMaskSpecError{Token: tok}
		}
		m.SetRange(id1, id2, shown)
	case reSingleID.MatchString(atom):
		id, ok := parseID(atom)
		if !ok {
			return &InvalidBlockMaskSpecError{Token: tok}
		}
		m.Set(id, shown)
	default:
		return &InvalidBlockMaskSpecError{Token: tok}
	}
	return nil
}

// LoadBlockMaskFromString parses a space separated block mask definition
// and returns the resulting mask, aborting at the first malformed token.
// Blocks are shown by default; a '!' prefix on a token hides instead.
func LoadBlockMaskFromString(def string) (*BlockMask, error) {
	m := NewBlockMask()
	m.SetAll(true)

	for _, tok := range strings.Fields(def) {
		if err := applyToken(m, tok); err != nil {
			return nil, err
		}
		m.tokens = append(m.tokens, tok)
	}

	return m, nil
}

// LoadBlockMaskFromStringValidated parses def the same as
// LoadBlockMaskFromString, but continues past a malformed token instead of
// aborting, recording an Error-severity validate.Message for each one
// (§10.2/§12 item 3, grounded on config/configparser.cpp's pattern of
// accumulating validation messages while parsing continues). The returned
// mask reflects every token that parsed successfully; callers must still
// check result.HasErrors() before treating the mask as authoritative.
func LoadBlockMaskFromStringValidated(def string) (*BlockMask, validate.Result) {
	m := NewBlockMask()
	m.SetAll(true)

	var result validate.Result
	for _, tok := range strings.Fields(def) {
		if err := applyToken(m, tok); err != nil {
			result.Add(validate.NewError("blockmask", "%v", err))
			continue
		}
		m.tokens = append(m.tokens, tok)
	}

	return m, result
}

func parseID(s string) (uint16, bool) {
	v, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, false
	}
	return uint16(v), true
}

func parseByte(s string) (uint8, bool) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, false
	}
	return uint8(v), true
}

// String re-emits the definition this mask was loaded from, token by
// token, so re-parsing it reproduces the same mask (§8).
func (m *BlockMask) String() string {
	return strings.Join(m.tokens, " ")
}
