package service

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/repository"
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TemplateInput carries every editable field of a template.
type TemplateInput struct {
	Name          domain.LocalizedText  `json:"name"`
	Description   domain.LocalizedText  `json:"description"`
	Type          domain.PlanType       `json:"type"`
	DurationWeeks int                   `json:"durationWeeks"`
	Difficulty    string                `json:"difficulty"`
	Goal          string                `json:"goal"`
	Days          []domain.DayBlueprint `json:"days"`
}

// TemplateService lets admins author reusable plan blueprints.
type TemplateService interface {
	CreateTemplate(ctx context.Context, actor domain.Actor, in TemplateInput) (*domain.Template, error)
	GetTemplate(ctx context.Context, actor domain.Actor, id primitive.ObjectID) (*domain.Template, error)
	UpdateTemplate(ctx context.Context, actor domain.Actor, id primitive.ObjectID, in TemplateInput) (*domain.Template, error)
	DeleteTemplate(ctx context.Context, actor domain.Actor, id primitive.ObjectID) error
}

type templateService struct {
	templateRepo repository.TemplateRepository
	catalog      catalogRefs
	guard        accessGuard
}

// NewTemplateService creates a new instance of templateService.
func NewTemplateService(templateRepo repository.TemplateRepository, exerciseRepo repository.ExerciseRepository, foodRepo repository.FoodRepository) TemplateService {
	return &templateService{
		templateRepo: templateRepo,
		catalog:      catalogRefs{exerciseRepo: exerciseRepo, foodRepo: foodRepo},
	}
}

// validateTemplate checks the template header and every blueprint, resolving
// catalog references in place.
func (s *templateService) validateTemplate(ctx context.Context, in *TemplateInput) error {
	if !in.Type.Valid() {
		return invalid("type", "must be training or nutrition")
	}
	if !in.Name.Published() {
		return invalid("name", "a "+string(domain.DefaultLocale)+" name is required")
	}
	if in.DurationWeeks < 1 {
		return invalid("durationWeeks", "must be at least 1")
	}
	seen := map[domain.Weekday]bool{}
	for i := range in.Days {
		d := &in.Days[i]
		if err := validateWeekday(d.Weekday); err != nil {
			return prefixField(fmt.Sprintf("days[%d]", i), err)
		}
		if d.Weekday != nil {
			if seen[*d.Weekday] {
				return invalid(fmt.Sprintf("days[%d].weekday", i), "already used by another day of this template")
			}
			seen[*d.Weekday] = true
		}
		if d.Items == nil {
			d.Items = []domain.ItemBlueprint{}
		}
		for j := range d.Items {
			if err := s.catalog.checkItem(ctx, in.Type, &d.Items[j]); err != nil {
				return prefixField(fmt.Sprintf("days[%d].items[%d]", i, j), err)
			}
		}
	}
	return nil
}

// prefixField qualifies an InvariantError's field with its position.
func prefixField(prefix string, err error) error {
	if ie, ok := err.(*InvariantError); ok {
		return &InvariantError{Field: prefix + "." + ie.Field, Reason: ie.Reason}
	}
	return err
}

func (s *templateService) CreateTemplate(ctx context.Context, actor domain.Actor, in TemplateInput) (*domain.Template, error) {
	if err := s.guard.requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validateTemplate(ctx, &in); err != nil {
		return nil, err
	}
	tmpl := &domain.Template{
		CreatedBy:     actor.UserID,
		Name:          in.Name,
		Description:   in.Description,
		Type:          in.Type,
		DurationWeeks: in.DurationWeeks,
		Difficulty:    in.Difficulty,
		Goal:          in.Goal,
		Days:          in.Days,
	}
	if _, err := s.templateRepo.Create(ctx, tmpl); err != nil {
		return nil, storeError("create template", err, nil)
	}
	return tmpl, nil
}

func (s *templateService) GetTemplate(ctx context.Context, actor domain.Actor, id primitive.ObjectID) (*domain.Template, error) {
	if err := s.guard.requireAdmin(actor); err != nil {
		return nil, err
	}
	tmpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load template", err, ErrTemplateNotFound)
	}
	return tmpl, nil
}

// UpdateTemplate replaces the template's content. Plans already materialized
// from it are independent copies and do not change.
func (s *templateService) UpdateTemplate(ctx context.Context, actor domain.Actor, id primitive.ObjectID, in TemplateInput) (*domain.Template, error) {
	if err := s.guard.requireAdmin(actor); err != nil {
		return nil, err
	}
	if err := s.validateTemplate(ctx, &in); err != nil {
		return nil, err
	}
	tmpl, err := s.templateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("load template", err, ErrTemplateNotFound)
	}
	tmpl.Name = in.Name
	tmpl.Description = in.Description
	tmpl.Type = in.Type
	tmpl.DurationWeeks = in.DurationWeeks
	tmpl.Difficulty = in.Difficulty
	tmpl.Goal = in.Goal
	tmpl.Days = in.Days
	if err := s.templateRepo.Update(ctx, tmpl); err != nil {
		return nil, storeError("update template", err, ErrTemplateNotFound)
	}
	return tmpl, nil
}

func (s *templateService) DeleteTemplate(ctx context.Context, actor domain.Actor, id primitive.ObjectID) error {
	if err := s.guard.requireAdmin(actor); err != nil {
		return err
	}
	if err := s.templateRepo.Delete(ctx, id); err != nil {
		return storeError("delete template", err, ErrTemplateNotFound)
	}
	return nil
}
