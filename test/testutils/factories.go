package testutils

import (
	"strconv"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/greenbite/mealplanner/internal/domain/inventory"
	"github.com/greenbite/mealplanner/internal/domain/mealplan"
	"github.com/greenbite/mealplanner/internal/domain/recipe"
)

// CandidateFactory builds recipe candidates and catalog recipes with fake content
type CandidateFactory struct {
	faker *gofakeit.Faker
	seq   int
}

// NewCandidateFactory creates a factory with a seeded faker for reproducible data
func NewCandidateFactory(seed int64) *CandidateFactory {
	return &CandidateFactory{faker: gofakeit.New(seed)}
}

// Candidate returns a candidate with a unique title and source id
func (f *CandidateFactory) Candidate(origin mealplan.Origin) mealplan.RecipeCandidate {
	f.seq++
	return mealplan.RecipeCandidate{
		Title:       f.faker.Dinner() + " #" + strconv.Itoa(f.seq),
		Ingredients: f.ingredients(),
		Steps:       []string{f.faker.Sentence(6), f.faker.Sentence(8)},
		Cuisine:     f.faker.RandomString([]string{"Italian", "Mexican", "Japanese", "Indian"}),
		Calories:    strconv.Itoa(f.faker.Number(200, 900)),
		Serving:     strconv.Itoa(f.faker.Number(1, 6)),
		Photo:       f.faker.URL(),
		SourceID:    strconv.Itoa(50000 + f.seq),
		Origin:      origin,
	}
}

// Candidates returns n distinct candidates
func (f *CandidateFactory) Candidates(n int, origin mealplan.Origin) []mealplan.RecipeCandidate {
	out := make([]mealplan.RecipeCandidate, n)
	for i := range out {
		out[i] = f.Candidate(origin)
	}
	return out
}

// Recipe returns a catalog recipe
func (f *CandidateFactory) Recipe() *recipe.Recipe {
	c := f.Candidate(mealplan.OriginCatalog)
	r, err := recipe.NewRecipe(c.Title, c.SourceID, c.Ingredients, c.Steps)
	if err != nil {
		panic(err)
	}
	r.Cuisine = c.Cuisine
	r.Calories = f.faker.Number(200, 900)
	r.Servings = f.faker.Number(1, 6)
	return r
}

// PantryItem returns an in-stock pantry item for userID
func (f *CandidateFactory) PantryItem(userID uuid.UUID, name string, quantity float64) *inventory.PantryItem {
	item, err := inventory.NewPantryItem(userID, name, quantity, f.faker.RandomString([]string{"pcs", "g", "ml"}))
	if err != nil {
		panic(err)
	}
	return item
}

func (f *CandidateFactory) ingredients() []string {
	n := f.faker.Number(2, 5)
	out := make([]string, n)
	for i := range out {
		out[i] = strconv.Itoa(f.faker.Number(1, 4)) + " " + f.faker.Vegetable()
	}
	return out
}
