package engine

import "github.com/perfboard/perfboard/model"

func singleChoice(linkID string, options ...string) model.Item {
	return model.Item{
		LinkID:  linkID,
		Type:    model.TypeChoice,
		Active:  true,
		Options: makeOptions(options),
	}
}

func keyedChoice(linkID, correct string, options ...string) model.Item {
	it := singleChoice(linkID, options...)
	it.RequiresCorrect = true
	for i := range it.Options {
		if it.Options[i].Value == correct {
			it.Options[i].Correct = true
		}
	}
	return it
}

func likertItem(linkID string, options ...string) model.Item {
	return model.Item{
		LinkID:  linkID,
		Type:    model.TypeLikert,
		Active:  true,
		Options: makeOptions(options),
	}
}

func makeOptions(values []string) []model.Option {
	opts := make([]model.Option, len(values))
	for i, v := range values {
		opts[i] = model.Option{Value: v, Order: i}
	}
	return opts
}

func inSection(it model.Item, sectionID int) model.Item {
	it.SectionID = &sectionID
	return it
}
