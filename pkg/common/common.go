package common

import "time"

// Embedding dimensions are fixed per payload class. Vectors of any other
// length are rejected before they reach the database.
const (
	ChunkEmbeddingDim = 1024
	ItemEmbeddingDim  = 1536
	ImageEmbeddingDim = 512
)

// SourceKind discriminates the tagged union of item extension records.
// Each kind owns exactly one extension table; a kind without extra
// metadata (plain notes) carries none.
type SourceKind string

const (
	SourceKindEmail SourceKind = "email"
	SourceKindDoc   SourceKind = "doc"
	SourceKindImage SourceKind = "image"
	SourceKindVoice SourceKind = "voice"
	SourceKindNote  SourceKind = "note"
	SourceKindWeb   SourceKind = "web"
)

// Valid reports whether k is one of the known source kinds.
func (k SourceKind) Valid() bool {
	switch k {
	case SourceKindEmail, SourceKindDoc, SourceKindImage, SourceKindVoice, SourceKindNote, SourceKindWeb:
		return true
	}
	return false
}

// Entity represents a node in the relation graph: a person, organization,
// place, or any other referent extracted from the user's content. Entities
// are never deleted; repeated sightings merge into the existing row.
//
// Matching on upsert runs in identity-strength order: email first, then
// domain, then case-insensitive name within the same kind.
type Entity struct {
	ID         int64             `json:"-"`
	PublicID   string            `json:"id"`
	Name       string            `json:"name"`
	Kind       string            `json:"kind"`
	Aliases    []string          `json:"aliases,omitempty"`
	Emails     []string          `json:"emails,omitempty"`
	Phones     []string          `json:"phones,omitempty"`
	Domains    []string          `json:"domains,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// Cardinality declares how many objects a predicate admits per subject.
// It is advisory metadata for extraction and query planning; the store
// does not enforce it on insert.
type Cardinality string

const (
	CardinalityOneToOne   Cardinality = "one_to_one"
	CardinalityOneToMany  Cardinality = "one_to_many"
	CardinalityManyToMany Cardinality = "many_to_many"
)

// Valid reports whether c is one of the known cardinalities.
func (c Cardinality) Valid() bool {
	switch c {
	case CardinalityOneToOne, CardinalityOneToMany, CardinalityManyToMany:
		return true
	}
	return false
}

// Predicate is a canonical relation type in the controlled vocabulary.
// The code is the stable machine identifier ("works_at", "parent_of");
// human-facing labels and lookup terms hang off it per language.
//
// A symmetric predicate mirrors onto itself. An asymmetric predicate may
// be linked to an inverse ("parent_of" <-> "child_of"); the link is
// stored on both rows.
type Predicate struct {
	ID          int64       `json:"-"`
	Code        string      `json:"code"`
	Symmetric   bool        `json:"symmetric"`
	Cardinality Cardinality `json:"cardinality"`
	InverseID   *int64      `json:"-"`
	InverseCode *string     `json:"inverse_code,omitempty"`
	Description string      `json:"description,omitempty"`
}

// PredicateLabel is a display label for a predicate in one language.
type PredicateLabel struct {
	PredicateID int64  `json:"-"`
	Lang        string `json:"lang"`
	Label       string `json:"label"`
}

// PredicateTerm maps a normalized (lang, term) pair to a predicate for
// phrase lookup. The first writer of a pair wins; later conflicting
// writes are ignored.
type PredicateTerm struct {
	PredicateID int64  `json:"-"`
	Lang        string `json:"lang"`
	Term        string `json:"term"`
}

// Role is a registered qualifier for relations ("manager", "tenant").
// Roles follow the same insert-or-fetch discipline as predicates.
type Role struct {
	ID          int64  `json:"-"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
}

// Relation is a directed edge (subject, predicate, object) with optional
// role qualifier and validity interval. Qualifiers carries edge-level
// annotations ("firm", "city") as a flat string map with snake_case keys.
// SystemGenerated marks mirror edges the store writes automatically;
// user code never sets it.
type Relation struct {
	ID              int64             `json:"-"`
	PublicID        string            `json:"id"`
	SubjectID       int64             `json:"-"`
	SubjectPublicID string            `json:"subject_id"`
	PredicateCode   string            `json:"predicate"`
	ObjectID        int64             `json:"-"`
	ObjectPublicID  string            `json:"object_id"`
	Role            *string           `json:"role,omitempty"`
	Qualifiers      map[string]string `json:"qualifiers,omitempty"`
	StartAt         *time.Time        `json:"start_at,omitempty"`
	EndAt           *time.Time        `json:"end_at,omitempty"`
	Confidence      float64           `json:"confidence"`
	SystemGenerated bool              `json:"system_generated"`
	SourceItemID    *int64            `json:"-"`
	CreatedAt       time.Time         `json:"created_at"`
}

// ActiveAt reports whether the relation's validity interval covers the
// given instant. An open bound always passes; end_at is exclusive, so
// an edge ending exactly at t is no longer active.
func (r Relation) ActiveAt(t time.Time) bool {
	return IntervalActive(r.StartAt, r.EndAt, t)
}

// IntervalActive reports whether a [start, end) interval covers t.
// A nil bound is open on that side.
func IntervalActive(start, end *time.Time, t time.Time) bool {
	if start != nil && start.After(t) {
		return false
	}
	if end != nil && !end.After(t) {
		return false
	}
	return true
}

// AliasBinding maps a spoken phrase ("mom", "my boss") to either a fixed
// entity or a predicate to traverse from the owner at resolution time.
// Exactly one of TargetEntityID and DefaultPredicateCode is set.
type AliasBinding struct {
	ID                   int64   `json:"-"`
	OwnerEntityID        int64   `json:"-"`
	Phrase               string  `json:"phrase"`
	TargetEntityID       *int64  `json:"-"`
	TargetPublicID       *string `json:"target_id,omitempty"`
	DefaultPredicateCode *string `json:"default_predicate,omitempty"`
}

// ResolvedTarget is the outcome of alias resolution. Via records which
// tier produced the match: "direct" for a pinned entity, "relation" for
// a predicate traversal from the owner. A direct match carries exactly
// one entity; a traversal may yield zero, one, or many ("my agent" can
// have several current holders), strongest relation first.
type ResolvedTarget struct {
	Entities []Entity `json:"entities"`
	Via      string   `json:"via"`
}

// Item is one ingested piece of content (an email, a document, a photo,
// a voice memo, a note). The row keeps searchable metadata and an
// optional item-level embedding; the body lives in chunks.
//
// Items are soft deleted. A deleted item keeps its row but vanishes from
// every read path, and its content hash no longer blocks re-ingestion.
type Item struct {
	ID           int64      `json:"-"`
	PublicID     string     `json:"id"`
	SourceKind   SourceKind `json:"source_kind"`
	OriginSource string     `json:"origin_source,omitempty"`
	OriginID     string     `json:"origin_id,omitempty"`
	Title        string     `json:"title"`
	Snippet      string     `json:"snippet,omitempty"`
	ContentHash  string     `json:"content_hash"`
	EventAt      time.Time  `json:"event_at"`
	Lang         string     `json:"lang,omitempty"`
	ThreadID     *string    `json:"thread_id,omitempty"`
	People       []string   `json:"people,omitempty"`
	Orgs         []string   `json:"orgs,omitempty"`
	Domains      []string   `json:"domains,omitempty"`
	Tags         []string   `json:"tags,omitempty"`
	Embedding    []float32  `json:"embedding,omitempty"`
	DeletedAt    *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

// EmailMeta is the extension record for email items.
type EmailMeta struct {
	ItemID    int64    `json:"-"`
	FromAddr  string   `json:"from,omitempty"`
	ToAddrs   []string `json:"to,omitempty"`
	CcAddrs   []string `json:"cc,omitempty"`
	MessageID string   `json:"message_id,omitempty"`
	InReplyTo string   `json:"in_reply_to,omitempty"`
}

// DocMeta is the extension record for document items.
type DocMeta struct {
	ItemID     int64  `json:"-"`
	MimeType   string `json:"mime_type,omitempty"`
	PageCount  int    `json:"page_count,omitempty"`
	SourcePath string `json:"source_path,omitempty"`
}

// ImageMeta is the extension record for image items. The embedding is a
// separate visual vector, not the item-level text vector.
type ImageMeta struct {
	ItemID    int64     `json:"-"`
	Width     int       `json:"width,omitempty"`
	Height    int       `json:"height,omitempty"`
	Caption   string    `json:"caption,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// VoiceMeta is the extension record for voice items.
type VoiceMeta struct {
	ItemID      int64   `json:"-"`
	DurationSec float64 `json:"duration_sec,omitempty"`
	Lang        string  `json:"lang,omitempty"`
}

// Chunk is one retrievable segment of an item's body. Ord 0 is reserved
// for the title or subject line; body segments start at 1. A chunk may
// be stored without an embedding and remain keyword-searchable until a
// re-embed fills the vector in.
type Chunk struct {
	ID        int64     `json:"-"`
	PublicID  string    `json:"id"`
	ItemID    int64     `json:"-"`
	Ord       int       `json:"ord"`
	Text      string    `json:"text"`
	Lang      string    `json:"lang,omitempty"`
	Embedding []float32 `json:"-"`
}

// Span locates a fact's supporting text inside its source item as a
// half-open [start, end) rune offset range.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Fact is one append-only observation about an entity attribute. Facts
// are never updated in place; the current value of a key is derived at
// read time from the full history. Value keeps the raw extracted text;
// NormalizedValue and DataType carry the machine form when extraction
// produced one. Span points at the supporting text for citation.
type Fact struct {
	ID              int64     `json:"-"`
	PublicID        string    `json:"id"`
	EntityID        int64     `json:"-"`
	Key             string    `json:"key"`
	Value           string    `json:"value"`
	NormalizedValue string    `json:"normalized_value,omitempty"`
	DataType        string    `json:"data_type,omitempty"`
	Span            *Span     `json:"span,omitempty"`
	Confidence      float64   `json:"confidence"`
	SourceItemID    *int64    `json:"-"`
	SourceItemRef   *string   `json:"item_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// DateRange restricts hits to items whose event time falls inside
// [From, To). A nil bound is open on that side.
type DateRange struct {
	From *time.Time `json:"from,omitempty"`
	To   *time.Time `json:"to,omitempty"`
}

// SearchQuery carries one hybrid retrieval request. Embedding and Text
// are each optional, but at least one must be present. Tags, Entities,
// Domains, and DateRange are hard pre-filters on the candidate items;
// BoostTags only reorder. Entities holds entity public ids and keeps
// items that mention or source a relation or fact of any of them.
type SearchQuery struct {
	Text                    string     `json:"text,omitempty"`
	Embedding               []float32  `json:"-"`
	Tags                    []string   `json:"tags,omitempty"`
	BoostTags               []string   `json:"boost_tags,omitempty"`
	Entities                []string   `json:"entities,omitempty"`
	Domains                 []string   `json:"domains,omitempty"`
	DateRange               *DateRange `json:"date_range,omitempty"`
	Limit                   int        `json:"limit,omitempty"`
	Offset                  int        `json:"offset,omitempty"`
	IncludeAllThreadMatches bool       `json:"include_all_thread_matches,omitempty"`
}

// ScoredChunk is one ranked hit: the chunk plus item provenance and the
// score breakdown that produced its position.
type ScoredChunk struct {
	ChunkPublicID string    `json:"chunk_id"`
	ItemPublicID  string    `json:"item_id"`
	Ord           int       `json:"ord"`
	Text          string    `json:"text"`
	Title         string    `json:"title"`
	ThreadID      *string   `json:"thread_id,omitempty"`
	EventAt       time.Time `json:"event_at"`
	Tags          []string  `json:"tags,omitempty"`
	Score         float64   `json:"score"`
	VectorScore   float64   `json:"vector_score"`
	KeywordScore  float64   `json:"keyword_score"`
}

// SearchResult is one page of ranked hits with pagination bookkeeping.
// Total counts the full post-dedup result set, not the page.
type SearchResult struct {
	Results    []ScoredChunk `json:"results"`
	Total      int           `json:"total"`
	HasMore    bool          `json:"has_more"`
	NextOffset int           `json:"next_offset"`
}
