package queue

import (
	"time"

	"github.com/mindvault/backend/pkg/common"
)

// IngestMessage carries one extraction batch: the vocabulary, entities,
// relations, items, and facts one upstream pipeline run produced. The
// worker applies the sections in dependency order so the batch can be
// redelivered and converge to the same graph state.
type IngestMessage struct {
	BatchID    string             `json:"batch_id,omitempty"`
	Predicates []PredicatePayload `json:"predicates,omitempty"`
	Entities   []EntityPayload    `json:"entities,omitempty"`
	Relations  []RelationPayload  `json:"relations,omitempty"`
	Items      []ItemPayload      `json:"items,omitempty"`
	Facts      []FactPayload      `json:"facts,omitempty"`
}

// PredicatePayload registers a vocabulary entry used by the batch.
type PredicatePayload struct {
	Code        string                  `json:"code"`
	Symmetric   bool                    `json:"symmetric,omitempty"`
	Cardinality common.Cardinality      `json:"cardinality,omitempty"`
	InverseCode string                  `json:"inverse_code,omitempty"`
	Description string                  `json:"description,omitempty"`
	Labels      []common.PredicateLabel `json:"labels,omitempty"`
	Terms       []common.PredicateTerm  `json:"terms,omitempty"`
}

// EntityPayload is an entity sighting. Ref is a batch-local handle
// other sections use to point at this entity before its public id is
// known.
type EntityPayload struct {
	Ref    string        `json:"ref,omitempty"`
	Entity common.Entity `json:"entity"`
}

// RelationPayload references its endpoints either by batch-local ref
// or by an existing entity public id.
type RelationPayload struct {
	SubjectRef    string            `json:"subject_ref"`
	PredicateCode string            `json:"predicate"`
	ObjectRef     string            `json:"object_ref"`
	Role          *string           `json:"role,omitempty"`
	Qualifiers    map[string]string `json:"qualifiers,omitempty"`
	StartAt       *time.Time        `json:"start_at,omitempty"`
	EndAt         *time.Time        `json:"end_at,omitempty"`
	Confidence    float64           `json:"confidence"`
}

// ItemPayload is one content item plus its chunks. When Chunks is
// empty and RawText is set, the worker segments the text itself; such
// chunks start without embeddings and wait for a re-embed.
type ItemPayload struct {
	Item    common.Item       `json:"item"`
	Email   *common.EmailMeta `json:"email,omitempty"`
	Doc     *common.DocMeta   `json:"doc,omitempty"`
	Image   *common.ImageMeta `json:"image,omitempty"`
	Voice   *common.VoiceMeta `json:"voice,omitempty"`
	Chunks  []ChunkPayload    `json:"chunks,omitempty"`
	RawText string            `json:"raw_text,omitempty"`
}

// ChunkPayload is one pre-segmented chunk with an optional vector.
type ChunkPayload struct {
	Ord       int       `json:"ord"`
	Text      string    `json:"text"`
	Lang      string    `json:"lang,omitempty"`
	Embedding []float32 `json:"embedding,omitempty"`
}

// FactPayload appends one observation to an entity identified by
// batch-local ref or public id.
type FactPayload struct {
	EntityRef       string       `json:"entity_ref"`
	Key             string       `json:"key"`
	Value           string       `json:"value"`
	NormalizedValue string       `json:"normalized_value,omitempty"`
	DataType        string       `json:"data_type,omitempty"`
	Span            *common.Span `json:"span,omitempty"`
	Confidence      float64      `json:"confidence"`
}

// ReembedMessage replaces chunk embeddings in place.
type ReembedMessage struct {
	Updates []ChunkEmbeddingPayload `json:"updates"`
}

// ChunkEmbeddingPayload pairs a chunk public id with its new vector.
type ChunkEmbeddingPayload struct {
	ChunkID   string    `json:"chunk_id"`
	Embedding []float32 `json:"embedding"`
}

// DeleteMessage soft-deletes one item.
type DeleteMessage struct {
	ItemID string `json:"item_id"`
}
