package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/soundpin/soundpin/internal/core/domain"
	"github.com/soundpin/soundpin/internal/core/requests"
)

// buildSchema creates the GraphQL schema wired to our services.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	locationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Location",
		Fields: graphql.Fields{
			"lat":      &graphql.Field{Type: graphql.Float},
			"lng":      &graphql.Field{Type: graphql.Float},
			"accuracy": &graphql.Field{Type: graphql.Float},
		},
	})

	audioType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Audio",
		Fields: graphql.Fields{
			"url":              &graphql.Field{Type: graphql.String},
			"duration_seconds": &graphql.Field{Type: graphql.Float},
			"format":           &graphql.Field{Type: graphql.String},
		},
	})

	categoriesType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AICategories",
		Fields: graphql.Fields{
			"emotion":    &graphql.Field{Type: graphql.String},
			"topic":      &graphql.Field{Type: graphql.String},
			"language":   &graphql.Field{Type: graphql.String},
			"confidence": &graphql.Field{Type: graphql.Float},
		},
	})

	analysisType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AIAnalysis",
		Fields: graphql.Fields{
			"transcription": &graphql.Field{Type: graphql.String},
			"categories":    &graphql.Field{Type: categoriesType},
			"summary":       &graphql.Field{Type: graphql.String},
		},
	})

	pinType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Pin",
		Fields: graphql.Fields{
			"id":          &graphql.Field{Type: graphql.String},
			"owner_id":    &graphql.Field{Type: graphql.String},
			"location":    &graphql.Field{Type: locationType},
			"audio":       &graphql.Field{Type: audioType},
			"time_tag":    &graphql.Field{Type: graphql.String},
			"title":       &graphql.Field{Type: graphql.String},
			"status":      &graphql.Field{Type: graphql.String},
			"ai_analysis": &graphql.Field{Type: analysisType},
			"distance":    &graphql.Field{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"pin": &graphql.Field{
				Type:        pinType,
				Description: "Get a pin by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					id := p.Args["id"].(string)
					return deps.Pins.GetPinByID(p.Context, id)
				},
			},
			"nearbyPins": &graphql.Field{
				Type:        graphql.NewList(pinType),
				Description: "Pins inside a map viewport",
				Args: graphql.FieldConfigArgument{
					"north": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"south": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"east":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"west":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"limit": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					q := requests.NearbyQuery{
						Bounds: domain.GeoBounds{
							North: p.Args["north"].(float64),
							South: p.Args["south"].(float64),
							East:  p.Args["east"].(float64),
							West:  p.Args["west"].(float64),
						},
						Limit: p.Args["limit"].(int),
					}
					return deps.Pins.GetNearbyPins(p.Context, q)
				},
			},
			"searchPins": &graphql.Field{
				Type:        graphql.NewList(pinType),
				Description: "Combined pin search with radius, time range, and category filters",
				Args: graphql.FieldConfigArgument{
					"lat":        &graphql.ArgumentConfig{Type: graphql.Float},
					"lng":        &graphql.ArgumentConfig{Type: graphql.Float},
					"radius":     &graphql.ArgumentConfig{Type: graphql.Float},
					"start_time": &graphql.ArgumentConfig{Type: graphql.String},
					"end_time":   &graphql.ArgumentConfig{Type: graphql.String},
					"categories": &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
					"limit":      &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"offset":     &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var q requests.SearchQuery
					if v, ok := p.Args["lat"].(float64); ok {
						q.Lat = &v
					}
					if v, ok := p.Args["lng"].(float64); ok {
						q.Lng = &v
					}
					if v, ok := p.Args["radius"].(float64); ok {
						q.RadiusKm = &v
					}
					if raw, ok := p.Args["start_time"].(string); ok && raw != "" {
						t, err := time.Parse(time.RFC3339, raw)
						if err != nil {
							return nil, err
						}
						q.StartTime = &t
					}
					if raw, ok := p.Args["end_time"].(string); ok && raw != "" {
						t, err := time.Parse(time.RFC3339, raw)
						if err != nil {
							return nil, err
						}
						q.EndTime = &t
					}
					if raw, ok := p.Args["categories"].([]interface{}); ok {
						for _, v := range raw {
							if s, ok := v.(string); ok {
								q.Categories = append(q.Categories, s)
							}
						}
					}
					q.Limit, _ = p.Args["limit"].(int)
					q.Offset, _ = p.Args["offset"].(int)
					return deps.Pins.SearchPins(p.Context, q)
				},
			},
			"userPins": &graphql.Field{
				Type:        graphql.NewList(pinType),
				Description: "All pins owned by a user",
				Args: graphql.FieldConfigArgument{
					"user_id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					userID := p.Args["user_id"].(string)
					return deps.Pins.GetUserPins(p.Context, userID)
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query: queryType,
	})
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid request body"})
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.Context(),
		})

		return c.JSON(result)
	}
}
