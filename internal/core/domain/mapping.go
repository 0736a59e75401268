package domain

import (
	"fmt"
	"sort"
	"strings"
)

// Connector names the association tables that relate two levels.
type Connector int

// Connectors, one per distinct join path shape.
const (
	ConnectorNone Connector = iota
	ConnectorParagraphOfSentence
	ConnectorDocumentOfParagraph
	ConnectorSentenceOccurrence
	ConnectorDocumentToOccurrence
	ConnectorParagraphToOccurrence
	ConnectorSentenceToOccurrence
)

// String returns the connector name.
func (c Connector) String() string {
	switch c {
	case ConnectorNone:
		return "None"
	case ConnectorParagraphOfSentence:
		return "ParagraphOfSentence"
	case ConnectorDocumentOfParagraph:
		return "DocumentOfParagraph"
	case ConnectorSentenceOccurrence:
		return "SentenceOccurrence"
	case ConnectorDocumentToOccurrence:
		return "DocumentToOccurrence"
	case ConnectorParagraphToOccurrence:
		return "ParagraphToOccurrence"
	case ConnectorSentenceToOccurrence:
		return "SentenceToOccurrence"
	default:
		return fmt.Sprintf("Connector(%d)", int(c))
	}
}

// Column is a table-qualified column reference.
type Column struct {
	Table string
	Name  string
}

// String renders the column as Table.name.
func (c Column) String() string {
	return c.Table + "." + c.Name
}

// Col is shorthand for a Column literal.
func Col(table, name string) Column {
	return Column{Table: table, Name: name}
}

// Predicate is an equality between two columns.
type Predicate struct {
	Left  Column
	Right Column
}

// String renders the predicate as SQL.
func (p Predicate) String() string {
	return p.Left.String() + " = " + p.Right.String()
}

// JoinPath is the fixed descriptor of how two levels relate: the tables
// to join and the equality predicates that bind them.
type JoinPath struct {
	In        Level
	Out       Level
	Connector Connector

	// Tables is the de-duplicated FROM list: in, out, then connector tables.
	Tables []string

	// Predicates are ANDed together. The Url predicate, when needed, is last.
	Predicates []Predicate
}

// connectorFor selects the connector from the clamped level distance.
func connectorFor(in, out Level) Connector {
	a, b := in.rank(), out.rank()
	distance := a - b
	if distance < 0 {
		distance = -distance
	}

	touches := func(l Level) bool { return a == int(l) || b == int(l) }

	switch distance {
	case 0:
		return ConnectorNone
	case 1:
		if touches(LevelSentence) {
			return ConnectorParagraphOfSentence
		}
		if touches(LevelOccurrence) {
			return ConnectorDocumentToOccurrence
		}
		return ConnectorDocumentOfParagraph
	case 2:
		if touches(LevelSentence) {
			return ConnectorSentenceOccurrence
		}
		return ConnectorParagraphToOccurrence
	default:
		return ConnectorSentenceToOccurrence
	}
}

// connectorTables and connectorPredicates describe each connector's join.
var (
	connectorTables = map[Connector][]string{
		ConnectorNone:                  nil,
		ConnectorParagraphOfSentence:   {"ParagraphOfSentence"},
		ConnectorDocumentOfParagraph:   {"DocumentOfParagraph"},
		ConnectorSentenceOccurrence:    {"SentenceOccurrence"},
		ConnectorDocumentToOccurrence:  {"Occurrence"},
		ConnectorParagraphToOccurrence: {"DocumentOfParagraph", "Occurrence"},
		ConnectorSentenceToOccurrence:  {"SentenceOccurrence", "Occurrence"},
	}

	connectorPredicates = map[Connector][]Predicate{
		ConnectorNone: nil,
		ConnectorParagraphOfSentence: {
			{Col("Sentence", "id"), Col("ParagraphOfSentence", "sentence")},
			{Col("ParagraphOfSentence", "paragraph"), Col("Paragraph", "id")},
		},
		ConnectorDocumentOfParagraph: {
			{Col("Paragraph", "id"), Col("DocumentOfParagraph", "paragraph")},
			{Col("DocumentOfParagraph", "document"), Col("Document", "id")},
		},
		ConnectorSentenceOccurrence: {
			{Col("Sentence", "id"), Col("SentenceOccurrence", "sentence")},
			{Col("SentenceOccurrence", "document"), Col("Document", "id")},
		},
		ConnectorDocumentToOccurrence: {
			{Col("Document", "id"), Col("Occurrence", "document")},
		},
		ConnectorParagraphToOccurrence: {
			{Col("Paragraph", "id"), Col("DocumentOfParagraph", "paragraph")},
			{Col("DocumentOfParagraph", "document"), Col("Occurrence", "document")},
		},
		ConnectorSentenceToOccurrence: {
			{Col("Sentence", "id"), Col("SentenceOccurrence", "sentence")},
			{Col("SentenceOccurrence", "document"), Col("Occurrence", "document")},
		},
	}

	urlPredicate = Predicate{Col("Url", "id"), Col("Occurrence", "url")}
)

func buildJoinPath(in, out Level) JoinPath {
	connector := connectorFor(in, out)

	tables := make([]string, 0, 4)
	seen := make(map[string]bool, 4)
	for _, t := range append([]string{in.Table(), out.Table()}, connectorTables[connector]...) {
		if !seen[t] {
			seen[t] = true
			tables = append(tables, t)
		}
	}

	predicates := append([]Predicate(nil), connectorPredicates[connector]...)
	if in == LevelURL || out == LevelURL {
		predicates = append(predicates, urlPredicate)
	}

	return JoinPath{
		In:         in,
		Out:        out,
		Connector:  connector,
		Tables:     tables,
		Predicates: predicates,
	}
}

// joinPaths is computed once for every ordered pair of distinct levels.
var joinPaths = func() map[[2]Level]JoinPath {
	paths := make(map[[2]Level]JoinPath, len(Levels)*(len(Levels)-1))
	for _, in := range Levels {
		for _, out := range Levels {
			if in != out {
				paths[[2]Level{in, out}] = buildJoinPath(in, out)
			}
		}
	}
	return paths
}()

// JoinPathFor returns the precomputed join path between two distinct levels.
func JoinPathFor(in, out Level) (JoinPath, error) {
	if !in.IsValid() || !out.IsValid() {
		return JoinPath{}, fmt.Errorf("%w: %s -> %s", ErrUnsupportedLevel, in, out)
	}
	path, ok := joinPaths[[2]Level{in, out}]
	if !ok {
		return JoinPath{}, fmt.Errorf("%w: no join path from %s to itself", ErrInvalidInput, in)
	}
	return path, nil
}

// Projection is a single direct mapping query over a join path.
type Projection struct {
	Path JoinPath

	// InColumn restricts rows when Values is non-empty.
	InColumn Column

	// Values are matched with IN. Empty means every row at the in level.
	Values []string

	OutColumns    []Column
	IncludeOrigin bool
}

// OriginKey is the row key under which the origin value is reported.
// It is table-qualified so it never collides with an output column.
func (p Projection) OriginKey() string {
	return p.InColumn.String()
}

// OutKey is the row key of an output column: its bare name.
func OutKey(c Column) string {
	return c.Name
}

// Validate checks that the columns belong to the path's levels.
func (p Projection) Validate() error {
	if !p.Path.In.IsValid() || !p.Path.Out.IsValid() || p.Path.In == p.Path.Out {
		return fmt.Errorf("%w: projection %s -> %s", ErrInvalidInput, p.Path.In, p.Path.Out)
	}
	if p.InColumn.Table != p.Path.In.Table() || !p.Path.In.HasColumn(p.InColumn.Name) {
		return fmt.Errorf("%w: %s is not a column of %s", ErrUnsupportedColumn, p.InColumn, p.Path.In)
	}
	if len(p.OutColumns) == 0 {
		return fmt.Errorf("%w: no output columns requested", ErrInvalidInput)
	}
	for _, c := range p.OutColumns {
		if c.Table != p.Path.Out.Table() || !p.Path.Out.HasColumn(c.Name) {
			return fmt.Errorf("%w: %s is not a column of %s", ErrUnsupportedColumn, c, p.Path.Out)
		}
	}
	return nil
}

// MappedRow maps requested output column names ("id", "hash") and,
// optionally, the qualified origin key ("Sentence.hash") to values.
type MappedRow map[string]string

// Key returns a canonical encoding of the row for de-duplication.
func (r MappedRow) Key() string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte(0)
		b.WriteString(r[k])
		b.WriteByte(0)
	}
	return b.String()
}

// DistinctRows removes duplicate rows, keeping first-seen order.
func DistinctRows(rows []MappedRow) []MappedRow {
	seen := make(map[string]bool, len(rows))
	out := make([]MappedRow, 0, len(rows))
	for _, row := range rows {
		k := row.Key()
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, row)
	}
	return out
}

// MappingRequest asks which records at OutLevel relate to the given
// records at InLevel, optionally routed through OverLevel.
type MappingRequest struct {
	// Values identify the input records by InType. Empty matches everything.
	Values []string

	// InType is the column of InLevel that Values refer to (e.g. "hash", "id").
	InType string

	// OutTypes are the OutLevel columns to report.
	OutTypes []string

	InLevel  Level
	OutLevel Level

	// OverLevel, when set, runs the query in two stages through this level.
	OverLevel *Level

	// IncludeOrigin adds the InLevel.InType value to every row.
	IncludeOrigin bool
}

// Via returns a pointer to l for use as MappingRequest.OverLevel.
func Via(l Level) *Level {
	return &l
}

// Validate checks levels and columns. Unknown combinations fail loudly.
func (r MappingRequest) Validate() error {
	if !r.InLevel.IsValid() {
		return fmt.Errorf("%w: in level %s", ErrUnsupportedLevel, r.InLevel)
	}
	if !r.OutLevel.IsValid() {
		return fmt.Errorf("%w: out level %s", ErrUnsupportedLevel, r.OutLevel)
	}
	if r.InLevel == r.OutLevel {
		return fmt.Errorf("%w: in and out level are both %s", ErrInvalidInput, r.InLevel)
	}
	if r.OverLevel != nil {
		over := *r.OverLevel
		if !over.IsValid() {
			return fmt.Errorf("%w: over level %s", ErrUnsupportedLevel, over)
		}
		if over == r.InLevel || over == r.OutLevel {
			return fmt.Errorf("%w: over level %s must differ from in and out", ErrInvalidInput, over)
		}
	}
	if !r.InLevel.HasColumn(r.InType) {
		return fmt.Errorf("%w: %s has no column %q", ErrUnsupportedColumn, r.InLevel, r.InType)
	}
	if len(r.OutTypes) == 0 {
		return fmt.Errorf("%w: no output columns requested", ErrInvalidInput)
	}
	for _, t := range r.OutTypes {
		if !r.OutLevel.HasColumn(t) {
			return fmt.Errorf("%w: %s has no column %q", ErrUnsupportedColumn, r.OutLevel, t)
		}
	}
	return nil
}
