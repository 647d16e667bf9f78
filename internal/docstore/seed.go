package docstore

import "context"

// Seed loads the demo restaurant data if the dish collection is empty.
// Safe to call on every startup.
func Seed(ctx context.Context, s Store) error {
	existing, err := s.Find(ctx, CollectionDishes, nil)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	for _, d := range seedDishes {
		if _, err := s.Insert(ctx, CollectionDishes, d); err != nil {
			return err
		}
	}
	for _, t := range seedTables {
		if _, err := s.Insert(ctx, CollectionTables, t); err != nil {
			return err
		}
	}
	if _, err := s.Insert(ctx, CollectionInfo, seedInfo); err != nil {
		return err
	}
	return nil
}

var seedDishes = []map[string]any{
	{
		"name": "Soupe à l'oignon", "category": "starter", "isVegetarian": true, "price": 8.5,
		"ingredients": []map[string]any{
			{"name": "onion", "isAllergen": false},
			{"name": "gruyère", "isAllergen": true, "allergenType": "dairy"},
		},
	},
	{
		"name": "Salade de chèvre chaud", "category": "starter", "isVegetarian": true, "price": 9.0,
		"ingredients": []map[string]any{
			{"name": "goat cheese", "isAllergen": true, "allergenType": "dairy"},
			{"name": "walnuts", "isAllergen": true, "allergenType": "nuts"},
		},
	},
	{
		"name": "Boeuf bourguignon", "category": "main course", "isVegetarian": false, "price": 18.5,
		"ingredients": []map[string]any{
			{"name": "beef", "isAllergen": false},
			{"name": "red wine", "isAllergen": true, "allergenType": "sulfites"},
		},
	},
	{
		"name": "Ratatouille", "category": "main course", "isVegetarian": true, "price": 14.0,
		"ingredients": []map[string]any{
			{"name": "eggplant", "isAllergen": false},
			{"name": "zucchini", "isAllergen": false},
			{"name": "tomato", "isAllergen": false},
		},
	},
	{
		"name": "Magret de canard", "category": "main course", "isVegetarian": false, "price": 21.0,
		"ingredients": []map[string]any{
			{"name": "duck breast", "isAllergen": false},
			{"name": "honey", "isAllergen": false},
		},
	},
	{
		"name": "Crème brûlée", "category": "dessert", "isVegetarian": true, "price": 7.5,
		"ingredients": []map[string]any{
			{"name": "cream", "isAllergen": true, "allergenType": "dairy"},
			{"name": "egg", "isAllergen": true, "allergenType": "egg"},
		},
	},
	{
		"name": "Tarte Tatin", "category": "dessert", "isVegetarian": true, "price": 8.0,
		"ingredients": []map[string]any{
			{"name": "apple", "isAllergen": false},
			{"name": "butter", "isAllergen": true, "allergenType": "dairy"},
		},
	},
	{
		"name": "Vin rouge (verre)", "category": "drink", "isVegetarian": true, "price": 5.5,
		"ingredients": []map[string]any{
			{"name": "red wine", "isAllergen": true, "allergenType": "sulfites"},
		},
	},
}

var seedTables = []map[string]any{
	{"nbSeats": 2, "location": "indoor"},
	{"nbSeats": 2, "location": "indoor"},
	{"nbSeats": 4, "location": "indoor"},
	{"nbSeats": 4, "location": "outdoor"},
	{"nbSeats": 6, "location": "indoor"},
	{"nbSeats": 8, "location": "outdoor"},
}

var seedInfo = map[string]any{
	"name":    "Le Gourmet",
	"address": "12 rue de la République, 69002 Lyon",
	"phone":   "+33 4 72 00 00 00",
	"hours":   "Mardi–Samedi 12h–14h30, 19h–22h30. Fermé dimanche et lundi.",
}
