package pgx

import (
	"errors"
	"testing"

	"github.com/mindvault/backend/pkg/common"
	"github.com/mindvault/backend/pkg/store"
)

func TestValidateChunkBatch(t *testing.T) {
	valid1024 := make([]float32, common.ChunkEmbeddingDim)

	tests := []struct {
		name    string
		chunks  []common.Chunk
		wantErr bool
	}{
		{
			name: "title plus body",
			chunks: []common.Chunk{
				{Ord: 0, Text: "Subject line"},
				{Ord: 1, Text: "Body text", Embedding: valid1024},
			},
		},
		{
			name:   "empty title chunk allowed",
			chunks: []common.Chunk{{Ord: 0, Text: ""}},
		},
		{
			name:    "negative ord",
			chunks:  []common.Chunk{{Ord: -1, Text: "x"}},
			wantErr: true,
		},
		{
			name: "duplicate ord in batch",
			chunks: []common.Chunk{
				{Ord: 1, Text: "a"},
				{Ord: 1, Text: "b"},
			},
			wantErr: true,
		},
		{
			name:    "empty body text",
			chunks:  []common.Chunk{{Ord: 2, Text: "   "}},
			wantErr: true,
		},
		{
			name:    "wrong embedding length",
			chunks:  []common.Chunk{{Ord: 1, Text: "x", Embedding: make([]float32, 1536)}},
			wantErr: true,
		},
		{
			name:   "missing embedding allowed",
			chunks: []common.Chunk{{Ord: 1, Text: "keyword only"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateChunkBatch(tt.chunks)
			if tt.wantErr {
				var validation *common.ValidationError
				if !errors.As(err, &validation) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestValidateExtension(t *testing.T) {
	tests := []struct {
		name    string
		kind    common.SourceKind
		ext     store.ItemExtension
		wantErr bool
	}{
		{
			name: "email kind with email meta",
			kind: common.SourceKindEmail,
			ext:  store.ItemExtension{Email: &common.EmailMeta{FromAddr: "a@b.c"}},
		},
		{
			name: "note kind without extension",
			kind: common.SourceKindNote,
		},
		{
			name: "web kind without extension",
			kind: common.SourceKindWeb,
		},
		{
			name:    "web kind takes no extension record",
			kind:    common.SourceKindWeb,
			ext:     store.ItemExtension{Doc: &common.DocMeta{}},
			wantErr: true,
		},
		{
			name:    "kind mismatch",
			kind:    common.SourceKindDoc,
			ext:     store.ItemExtension{Email: &common.EmailMeta{}},
			wantErr: true,
		},
		{
			name: "two extensions set",
			kind: common.SourceKindEmail,
			ext: store.ItemExtension{
				Email: &common.EmailMeta{},
				Doc:   &common.DocMeta{},
			},
			wantErr: true,
		},
		{
			name: "image embedding wrong length",
			kind: common.SourceKindImage,
			ext: store.ItemExtension{
				Image: &common.ImageMeta{Embedding: make([]float32, 1024)},
			},
			wantErr: true,
		},
		{
			name: "image embedding correct length",
			kind: common.SourceKindImage,
			ext: store.ItemExtension{
				Image: &common.ImageMeta{Embedding: make([]float32, common.ImageEmbeddingDim)},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateExtension(tt.kind, tt.ext)
			if tt.wantErr {
				var validation *common.ValidationError
				if !errors.As(err, &validation) {
					t.Fatalf("expected ValidationError, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestSourceKindValid(t *testing.T) {
	for _, kind := range []common.SourceKind{
		common.SourceKindEmail, common.SourceKindDoc, common.SourceKindImage,
		common.SourceKindVoice, common.SourceKindNote, common.SourceKindWeb,
	} {
		if !kind.Valid() {
			t.Fatalf("%q must be a valid source kind", kind)
		}
	}
	for _, kind := range []common.SourceKind{"", "rss", "EMAIL"} {
		if kind.Valid() {
			t.Fatalf("%q must not be a valid source kind", kind)
		}
	}
}
