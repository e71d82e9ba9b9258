package core

import (
	"sort"

	"github.com/pkg/errors"
)

// Collections
const (
	CollActivities           = "activities"
	CollReadings             = "readings"
	CollReadingAddons        = "reading_addons"
	CollSubReadings          = "sub_readings"
	CollSources              = "sources"
	CollInTextSources        = "in_text_sources"
	CollImages               = "images"
	CollVocabularyItems      = "vocabulary_items"
	CollQuestions            = "questions"
	CollQuestionChoices      = "question_choices"
	CollGraphicOrganizers    = "graphic_organizers"
	CollLessonPlanDirections = "lesson_plan_directions"
)

var (
	ErrUnknownCollection = errors.New("unknown collection")
	ErrUnknownColumn     = errors.New("unknown column")

	sourceColumns = []string{"id", "activity_id", "title", "author", "content", "image_url", "published"}

	// Schema lists the columns of every collection known to the record store.
	Schema = map[string][]string{
		CollActivities:           {"id", "lesson_id", "order", "name", "published", "type", "created_at", "updated_at"},
		CollReadings:             {"id", "activity_id", "title", "content", "published"},
		CollReadingAddons:        {"id", "activity_id", "content", "published"},
		CollSubReadings:          {"id", "activity_id", "content", "published"},
		CollSources:              sourceColumns,
		CollInTextSources:        sourceColumns,
		CollImages:               {"id", "activity_id", "image_url", "title", "description_title", "description", "alt_text", "position", "published"},
		CollVocabularyItems:      {"id", "activity_id", "word", "definition", "vocab_order"},
		CollQuestions:            {"id", "activity_id", "question_text", "question_type", "part_b", "question_order"},
		CollQuestionChoices:      {"id", "question_id", "text", "is_correct", "choice_order"},
		CollGraphicOrganizers:    {"id", "activity_id", "template_type", "content", "published"},
		CollLessonPlanDirections: {"id", "lesson_plan_id", "activity_id", "content", "direction_order"},
	}

	schemaIndex = indexSchema()
)

func indexSchema() map[string]map[string]struct{} {
	idx := make(map[string]map[string]struct{}, len(Schema))
	for coll, cols := range Schema {
		set := make(map[string]struct{}, len(cols))
		for _, col := range cols {
			set[col] = struct{}{}
		}
		idx[coll] = set
	}
	return idx
}

// CheckColumns makes sure the collection and all provided columns exist.
func CheckColumns(collection string, cols ...string) error {
	set, ok := schemaIndex[collection]
	if !ok {
		return errors.Wrap(ErrUnknownCollection, collection)
	}
	for _, col := range cols {
		if _, ok := set[col]; !ok {
			return errors.Wrapf(ErrUnknownColumn, "%s.%s", collection, col)
		}
	}
	return nil
}

// Collections returns all known collection names, sorted.
func Collections() []string {
	colls := make([]string, 0, len(Schema))
	for coll := range Schema {
		colls = append(colls, coll)
	}
	sort.Strings(colls)
	return colls
}
