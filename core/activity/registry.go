package activity

import (
	"context"
	"encoding/json"
	"sort"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-lessons/core"
)

type (
	loadFunc  func(ctx context.Context, store core.RecordStore, activityID string) (Payload, error)
	saveFunc  func(ctx context.Context, store core.RecordStore, activityID string, p Payload) (Payload, error)
	purgeFunc func(ctx context.Context, store core.RecordStore, activityID string) error

	// Kind describes how an activity type is persisted.
	Kind struct {
		Type           Type   `json:"type"`
		Label          string `json:"label"`
		Collection     string `json:"collection"`
		HasNestedOrder bool   `json:"has_nested_order"`

		// New returns the empty payload of the type.
		New func() Payload `json:"-"`

		load  loadFunc
		save  saveFunc
		purge purgeFunc
	}
)

var registry = make(map[Type]*Kind)

func init() {
	registerFlat(TypeReading, "Reading", core.CollReadings,
		func() Payload { return Reading{} },
		func(p Payload) core.Record {
			r := p.(Reading)
			return core.Record{"title": r.Title, "content": r.Content, "published": flagValue(r.Published)}
		},
		func(rec core.Record) Payload {
			return Reading{Title: rec.String("title"), Content: rec.String("content"), Published: parseFlag(rec.String("published"))}
		},
	)
	registerFlat(TypeReadingAddon, "Reading Addon", core.CollReadingAddons,
		func() Payload { return ReadingAddon{} },
		func(p Payload) core.Record {
			r := p.(ReadingAddon)
			return core.Record{"content": r.Content, "published": flagValue(r.Published)}
		},
		func(rec core.Record) Payload {
			return ReadingAddon{Content: rec.String("content"), Published: parseFlag(rec.String("published"))}
		},
	)
	registerFlat(TypeSubReading, "Sub Reading", core.CollSubReadings,
		func() Payload { return SubReading{} },
		func(p Payload) core.Record {
			r := p.(SubReading)
			return core.Record{"content": r.Content, "published": flagValue(r.Published)}
		},
		func(rec core.Record) Payload {
			return SubReading{Content: rec.String("content"), Published: parseFlag(rec.String("published"))}
		},
	)
	registerFlat(TypeSource, "Source", core.CollSources,
		func() Payload { return Source{} },
		func(p Payload) core.Record { return sourceRecord(p.(Source)) },
		func(rec core.Record) Payload { return sourceFromRecord(rec) },
	)
	registerFlat(TypeInTextSource, "In-Text Source", core.CollInTextSources,
		func() Payload { return InTextSource{} },
		func(p Payload) core.Record { return sourceRecord(Source(p.(InTextSource))) },
		func(rec core.Record) Payload { return InTextSource(sourceFromRecord(rec)) },
	)
	registerFlat(TypeImage, "Image", core.CollImages,
		func() Payload { return Image{} },
		func(p Payload) core.Record {
			img := p.(Image)
			return core.Record{
				"image_url":         img.ImageURL,
				"title":             img.Title,
				"description_title": img.DescriptionTitle,
				"description":       img.Description,
				"alt_text":          img.AltText,
				"position":          string(img.Position),
				"published":         flagValue(img.Published),
			}
		},
		func(rec core.Record) Payload {
			return Image{
				ImageURL:         rec.String("image_url"),
				Title:            rec.String("title"),
				DescriptionTitle: rec.String("description_title"),
				Description:      rec.String("description"),
				AltText:          rec.String("alt_text"),
				Position:         ImagePosition(rec.String("position")),
				Published:        parseFlag(rec.String("published")),
			}
		},
	)
	registerFlat(TypeGraphicOrganizer, "Graphic Organizer", core.CollGraphicOrganizers,
		func() Payload { return GraphicOrganizer{} },
		func(p Payload) core.Record {
			g := p.(GraphicOrganizer)
			var content interface{}
			if len(g.Content) > 0 {
				content = string(g.Content) // jsonb
			}
			return core.Record{"template_type": g.TemplateType, "content": content, "published": flagValue(g.Published)}
		},
		func(rec core.Record) Payload {
			g := GraphicOrganizer{TemplateType: rec.String("template_type"), Published: parseFlag(rec.String("published"))}
			if b := rec.Bytes("content"); len(b) > 0 {
				g.Content = json.RawMessage(b)
			}
			return g
		},
	)

	register(Kind{
		Type:           TypeVocabulary,
		Label:          "Vocabulary",
		Collection:     core.CollVocabularyItems,
		HasNestedOrder: true,
		New:            func() Payload { return Vocabulary{} },
		load:           loadVocabulary,
		save:           saveVocabulary,
		purge:          purgeVocabulary,
	})
	register(Kind{
		Type:           TypeQuestion,
		Label:          "Question",
		Collection:     core.CollQuestions,
		HasNestedOrder: true,
		New:            func() Payload { return Quiz{} },
		load:           loadQuiz,
		save:           saveQuiz,
		purge:          purgeQuiz,
	})
}

func register(k Kind) {
	if _, exists := registry[k.Type]; exists {
		panic("activity: type registered twice: " + string(k.Type))
	}
	registry[k.Type] = &k
}

// Lookup returns the Kind registered for t.
func Lookup(t Type) (Kind, error) {
	k, ok := registry[t]
	if !ok {
		return Kind{}, errors.Wrapf(ErrUnknownType, "%q", t)
	}
	return *k, nil
}

// Kinds returns all registered kinds, sorted by type.
func Kinds() []Kind {
	kinds := make([]Kind, 0, len(registry))
	for _, k := range registry {
		kinds = append(kinds, *k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i].Type < kinds[j].Type })
	return kinds
}

// Flat payloads: one record per activity, keyed by activity_id.

func registerFlat(
	t Type,
	label, collection string,
	newFn func() Payload,
	encode func(Payload) core.Record,
	decode func(core.Record) Payload,
) {
	register(Kind{
		Type:       t,
		Label:      label,
		Collection: collection,
		New:        newFn,
		load: func(ctx context.Context, store core.RecordStore, activityID string) (Payload, error) {
			recs, err := store.Select(ctx, collection, core.Filter{"activity_id": activityID})
			if err != nil {
				return nil, errors.Wrapf(err, "loading %s payload", t)
			}
			if len(recs) == 0 {
				return newFn(), nil
			}
			return decode(recs[0]), nil
		},
		save: func(ctx context.Context, store core.RecordStore, activityID string, p Payload) (Payload, error) {
			// no native upsert-by-unique-key on the store: select first
			where := core.Filter{"activity_id": activityID}
			recs, err := store.Select(ctx, collection, where)
			if err != nil {
				return nil, errors.Wrapf(err, "checking %s payload", t)
			}
			rec := encode(p)
			if len(recs) == 0 {
				rec["activity_id"] = activityID
				if _, err = store.Insert(ctx, collection, rec); err != nil {
					return nil, errors.Wrapf(err, "inserting %s payload", t)
				}
				return p, nil
			}
			if _, err = store.Update(ctx, collection, where, rec); err != nil {
				return nil, errors.Wrapf(err, "updating %s payload", t)
			}
			return p, nil
		},
		purge: func(ctx context.Context, store core.RecordStore, activityID string) error {
			if _, err := store.Delete(ctx, collection, core.Filter{"activity_id": activityID}); err != nil {
				return errors.Wrapf(err, "deleting %s payload", t)
			}
			return nil
		},
	})
}

func sourceRecord(s Source) core.Record {
	return core.Record{
		"title":     s.Title,
		"author":    s.Author,
		"content":   s.Content,
		"image_url": s.ImageURL,
		"published": flagValue(s.Published),
	}
}

func sourceFromRecord(rec core.Record) Source {
	return Source{
		Title:     rec.String("title"),
		Author:    rec.String("author"),
		Content:   rec.String("content"),
		ImageURL:  rec.String("image_url"),
		Published: parseFlag(rec.String("published")),
	}
}
