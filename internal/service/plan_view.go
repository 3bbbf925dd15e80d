package service

import (
	"alcyxob/coaching-plans/internal/domain"
	"alcyxob/coaching-plans/internal/i18n"
	"alcyxob/coaching-plans/internal/repository"
	"alcyxob/coaching-plans/internal/schedule"
	"context"
	"log"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- View shapes returned to portal and admin screens ---

// Dashboard is a client's "today" screen across their active plans.
type Dashboard struct {
	ClientID  primitive.ObjectID `json:"clientId"`
	Today     domain.Weekday     `json:"today"`
	TodayName string             `json:"todayName"`
	Plans     []PlanSummary      `json:"plans"`
}

// PlanSummary is one active plan as seen on the dashboard.
type PlanSummary struct {
	PlanID      primitive.ObjectID  `json:"planId"`
	Type        domain.PlanType     `json:"type"`
	Name        string              `json:"name"`
	DayID       *primitive.ObjectID `json:"dayId,omitempty"`
	FocusLabel  string              `json:"focusLabel"`
	ItemCount   int                 `json:"itemCount"`
	IsRestDay   bool                `json:"isRestDay"`
	Macros      *domain.Macros      `json:"macros,omitempty"` // Nutrition plans only
	NextWorkout *NextWorkoutSummary `json:"nextWorkout,omitempty"`
}

type NextWorkoutSummary struct {
	DayID       primitive.ObjectID `json:"dayId"`
	Weekday     domain.Weekday     `json:"weekday"`
	WeekdayName string             `json:"weekdayName"`
	Label       string             `json:"label"`
	ItemCount   int                `json:"itemCount"`
}

// PlanDetail is the full day and item listing of one plan.
type PlanDetail struct {
	ID         primitive.ObjectID  `json:"id"`
	ClientID   primitive.ObjectID  `json:"clientId"`
	Type       domain.PlanType     `json:"type"`
	Status     domain.PlanStatus   `json:"status"`
	Name       string              `json:"name"`
	TemplateID *primitive.ObjectID `json:"templateId,omitempty"`
	Today      domain.Weekday      `json:"today"`
	Days       []DayView           `json:"days"`
}

type DayView struct {
	ID          primitive.ObjectID `json:"id"`
	SortOrder   int                `json:"sortOrder"`
	Weekday     *domain.Weekday    `json:"weekday,omitempty"`
	WeekdayName string             `json:"weekdayName,omitempty"`
	Label       string             `json:"label"`
	IsToday     bool               `json:"isToday"`
	IsRestDay   bool               `json:"isRestDay"`
	Macros      *domain.Macros     `json:"macros,omitempty"`
	Items       []ItemView         `json:"items"`
}

type ItemView struct {
	ID          primitive.ObjectID  `json:"id"`
	SortOrder   int                 `json:"sortOrder"`
	ExerciseID  *primitive.ObjectID `json:"exerciseId,omitempty"`
	Name        string              `json:"name"`
	ImageURL    string              `json:"imageUrl,omitempty"`
	Sets        int                 `json:"sets,omitempty"`
	Reps        string              `json:"reps,omitempty"`
	RestSeconds int                 `json:"restSeconds,omitempty"`
	Notes       string              `json:"notes,omitempty"`
	MealTime    string              `json:"mealTime,omitempty"`
	Macros      *domain.Macros      `json:"macros,omitempty"`
	Foods       []PortionView       `json:"foods,omitempty"`
}

type PortionView struct {
	FoodItemID *primitive.ObjectID `json:"foodItemId,omitempty"`
	Name       string              `json:"name"`
	Grams      float64             `json:"grams,omitempty"`
	Macros     domain.Macros       `json:"macros"`
}

// TemplateSummary is one row of the plan builder's template picker.
type TemplateSummary struct {
	ID            primitive.ObjectID `json:"id"`
	Type          domain.PlanType    `json:"type"`
	Name          string             `json:"name"`
	Description   string             `json:"description,omitempty"`
	DurationWeeks int                `json:"durationWeeks"`
	Difficulty    string             `json:"difficulty,omitempty"`
	Goal          string             `json:"goal,omitempty"`
	DayCount      int                `json:"dayCount"`
	ItemCount     int                `json:"itemCount"`
}

// CatalogLookup resolves catalog references at display time.
type CatalogLookup interface {
	LookupNames(ctx context.Context, exerciseIDs, foodIDs []primitive.ObjectID) (map[primitive.ObjectID]domain.CatalogEntry, error)
	ImageURL(ctx context.Context, key string) string
}

// PlanViewService builds the read-only shapes shown to clients and admins.
type PlanViewService interface {
	GetDashboard(ctx context.Context, actor domain.Actor, clientID primitive.ObjectID, locale domain.Locale) (*Dashboard, error)
	GetPlanDetail(ctx context.Context, actor domain.Actor, planID primitive.ObjectID, locale domain.Locale) (*PlanDetail, error)
	ListTemplates(ctx context.Context, actor domain.Actor, planType domain.PlanType, locale domain.Locale) ([]TemplateSummary, error)
}

type planViewService struct {
	planRepo     repository.PlanRepository
	dayRepo      repository.DayRepository
	itemRepo     repository.ItemRepository
	templateRepo repository.TemplateRepository
	catalog      CatalogLookup
	weekdays     *schedule.WeekdayResolver
	guard        accessGuard
}

// NewPlanViewService creates a new PlanViewService. weekdays supplies "today"
// in the business timezone.
func NewPlanViewService(
	userRepo repository.UserRepository,
	planRepo repository.PlanRepository,
	dayRepo repository.DayRepository,
	itemRepo repository.ItemRepository,
	templateRepo repository.TemplateRepository,
	catalog CatalogLookup,
	weekdays *schedule.WeekdayResolver,
) PlanViewService {
	if weekdays == nil {
		weekdays = schedule.NewWeekdayResolver(nil)
	}
	return &planViewService{
		planRepo:     planRepo,
		dayRepo:      dayRepo,
		itemRepo:     itemRepo,
		templateRepo: templateRepo,
		catalog:      catalog,
		weekdays:     weekdays,
		guard:        accessGuard{userRepo: userRepo},
	}
}

// GetDashboard summarizes today's day and the next workout of every active plan.
func (s *planViewService) GetDashboard(ctx context.Context, actor domain.Actor, clientID primitive.ObjectID, locale domain.Locale) (*Dashboard, error) {
	if err := s.guard.canView(ctx, actor, clientID); err != nil {
		return nil, err
	}
	plans, err := s.planRepo.ListByClient(ctx, clientID, repository.PlanFilter{Status: domain.PlanActive})
	if err != nil {
		return nil, storeError("list active plans", err, nil)
	}
	today := s.weekdays.CurrentWeekday()
	dash := &Dashboard{
		ClientID:  clientID,
		Today:     today,
		TodayName: schedule.WeekdayName(today, locale),
		Plans:     make([]PlanSummary, 0, len(plans)),
	}
	for i := range plans {
		graph, err := loadGraph(ctx, s.dayRepo, s.itemRepo, &plans[i])
		if err != nil {
			return nil, err
		}
		dash.Plans = append(dash.Plans, summarize(graph, today, locale))
	}
	return dash, nil
}

func summarize(graph *domain.PlanGraph, today domain.Weekday, locale domain.Locale) PlanSummary {
	sum := PlanSummary{
		PlanID: graph.Plan.ID,
		Type:   graph.Plan.Type,
		Name:   i18n.Resolve(graph.Plan.Name, locale),
	}
	res := schedule.ResolveToday(graph.Days, today)
	sum.IsRestDay = res.IsRestDay
	if res.Day != nil {
		sum.DayID = &res.Day.ID
		sum.ItemCount = len(res.Day.Items)
		sum.FocusLabel = dayLabel(res.Day, today, locale)
		if graph.Plan.Type == domain.PlanNutrition {
			m := dayMacros(res.Day)
			sum.Macros = &m
		}
	}
	if next := schedule.ResolveNextWorkout(graph.Days, today); next != nil {
		sum.NextWorkout = &NextWorkoutSummary{
			DayID:       next.Day.ID,
			Weekday:     next.Weekday,
			WeekdayName: schedule.WeekdayName(next.Weekday, locale),
			Label:       dayLabel(next.Day, next.Weekday, locale),
			ItemCount:   len(next.Day.Items),
		}
	}
	return sum
}

// dayLabel is the day's own label, or the name of the weekday it is shown for.
func dayLabel(d *domain.DayWithItems, shownFor domain.Weekday, locale domain.Locale) string {
	if label := i18n.Resolve(d.Label, locale); label != "" {
		return label
	}
	if d.Weekday != nil {
		return schedule.WeekdayName(*d.Weekday, locale)
	}
	return schedule.WeekdayName(shownFor, locale)
}

func dayMacros(d *domain.DayWithItems) domain.Macros {
	var total domain.Macros
	for i := range d.Items {
		total = total.Add(d.Items[i].TotalMacros())
	}
	return total
}

// GetPlanDetail lists every day and item of a plan with display names resolved.
func (s *planViewService) GetPlanDetail(ctx context.Context, actor domain.Actor, planID primitive.ObjectID, locale domain.Locale) (*PlanDetail, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, storeError("load plan", err, ErrPlanNotFound)
	}
	if err := s.guard.canView(ctx, actor, plan.ClientID); err != nil {
		return nil, err
	}
	graph, err := loadGraph(ctx, s.dayRepo, s.itemRepo, plan)
	if err != nil {
		return nil, err
	}
	entries := s.lookupCatalog(ctx, graph)
	today := s.weekdays.CurrentWeekday()
	todayDay := schedule.ResolveToday(graph.Days, today).Day

	detail := &PlanDetail{
		ID:         plan.ID,
		ClientID:   plan.ClientID,
		Type:       plan.Type,
		Status:     plan.Status,
		Name:       i18n.Resolve(plan.Name, locale),
		TemplateID: plan.TemplateID,
		Today:      today,
		Days:       make([]DayView, 0, len(graph.Days)),
	}
	positional := !graph.HasWeekdays()
	for i := range graph.Days {
		d := &graph.Days[i]
		dv := DayView{
			ID:        d.ID,
			SortOrder: d.SortOrder,
			Weekday:   d.Weekday,
			Label:     i18n.Resolve(d.Label, locale),
			IsToday:   todayDay != nil && todayDay.ID == d.ID,
			IsRestDay: d.IsRestDay(),
			Items:     make([]ItemView, 0, len(d.Items)),
		}
		if d.Weekday != nil {
			dv.WeekdayName = schedule.WeekdayName(*d.Weekday, locale)
		}
		// A positional day is shown for today, or else first for the weekday at its position.
		switch {
		case dv.IsToday:
			dv.Label = dayLabel(d, today, locale)
		case d.Weekday != nil:
			dv.Label = dayLabel(d, *d.Weekday, locale)
		case positional && domain.Weekday(i+1).Valid():
			dv.Label = dayLabel(d, domain.Weekday(i+1), locale)
		}
		if plan.Type == domain.PlanNutrition {
			m := dayMacros(d)
			dv.Macros = &m
		}
		for j := range d.Items {
			dv.Items = append(dv.Items, s.itemView(ctx, &d.Items[j], entries, locale))
		}
		detail.Days = append(detail.Days, dv)
	}
	return detail, nil
}

func (s *planViewService) itemView(ctx context.Context, it *domain.Item, entries map[primitive.ObjectID]domain.CatalogEntry, locale domain.Locale) ItemView {
	v := ItemView{
		ID:          it.ID,
		SortOrder:   it.SortOrder,
		ExerciseID:  it.ExerciseID,
		Name:        it.Name,
		Sets:        it.Sets,
		Reps:        it.Reps,
		RestSeconds: it.RestSeconds,
		Notes:       it.Notes,
		MealTime:    it.MealTime,
	}
	if it.ExerciseID != nil {
		if e, ok := entries[*it.ExerciseID]; ok {
			if name := i18n.Resolve(e.Name, locale); name != "" {
				v.Name = name
			}
			if e.ImageKey != "" && s.catalog != nil {
				v.ImageURL = s.catalog.ImageURL(ctx, e.ImageKey)
			}
		}
	}
	if len(it.Foods) > 0 || it.MealTime != "" || it.Macros != (domain.Macros{}) {
		m := it.TotalMacros()
		v.Macros = &m
	}
	for _, f := range it.Foods {
		pv := PortionView{FoodItemID: f.FoodItemID, Name: f.Name, Grams: f.Grams, Macros: f.Macros}
		if f.FoodItemID != nil {
			if e, ok := entries[*f.FoodItemID]; ok {
				if name := i18n.Resolve(e.Name, locale); name != "" {
					pv.Name = name
				}
			}
		}
		v.Foods = append(v.Foods, pv)
	}
	return v
}

// lookupCatalog fetches every catalog entry the graph references. A failed
// lookup degrades to the stored free-text names.
func (s *planViewService) lookupCatalog(ctx context.Context, graph *domain.PlanGraph) map[primitive.ObjectID]domain.CatalogEntry {
	if s.catalog == nil {
		return nil
	}
	var exerciseIDs, foodIDs []primitive.ObjectID
	for _, d := range graph.Days {
		for _, it := range d.Items {
			if it.ExerciseID != nil {
				exerciseIDs = append(exerciseIDs, *it.ExerciseID)
			}
			for _, f := range it.Foods {
				if f.FoodItemID != nil {
					foodIDs = append(foodIDs, *f.FoodItemID)
				}
			}
		}
	}
	if len(exerciseIDs) == 0 && len(foodIDs) == 0 {
		return nil
	}
	entries, err := s.catalog.LookupNames(ctx, exerciseIDs, foodIDs)
	if err != nil {
		log.Printf("WARN: Catalog lookup failed for plan %s, showing stored names: %v", graph.Plan.ID.Hex(), err)
		return nil
	}
	return entries
}

// ListTemplates returns the template picker rows, optionally of one type.
func (s *planViewService) ListTemplates(ctx context.Context, actor domain.Actor, planType domain.PlanType, locale domain.Locale) ([]TemplateSummary, error) {
	if err := s.guard.requireAdmin(actor); err != nil {
		return nil, err
	}
	if planType != "" && !planType.Valid() {
		return nil, invalid("type", "must be training or nutrition")
	}
	templates, err := s.templateRepo.List(ctx, planType)
	if err != nil {
		return nil, storeError("list templates", err, nil)
	}
	out := make([]TemplateSummary, 0, len(templates))
	for i := range templates {
		t := &templates[i]
		out = append(out, TemplateSummary{
			ID:            t.ID,
			Type:          t.Type,
			Name:          i18n.Resolve(t.Name, locale),
			Description:   i18n.Resolve(t.Description, locale),
			DurationWeeks: t.DurationWeeks,
			Difficulty:    t.Difficulty,
			Goal:          t.Goal,
			DayCount:      len(t.Days),
			ItemCount:     t.ItemCount(),
		})
	}
	return out, nil
}
