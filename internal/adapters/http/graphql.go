package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/astrochart/internal/core/domain"
	"github.com/samirrijal/astrochart/internal/core/usecases"
)

// buildSchema creates the GraphQL schema wired to the chart service.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	placement := func(name string, extra graphql.Fields) *graphql.Object {
		fields := graphql.Fields{
			"longitude":      &graphql.Field{Type: graphql.Float},
			"sign":           &graphql.Field{Type: graphql.String},
			"sign_id":        &graphql.Field{Type: graphql.String},
			"degree_in_sign": &graphql.Field{Type: graphql.Float},
		}
		for k, v := range extra {
			fields[k] = v
		}
		return graphql.NewObject(graphql.ObjectConfig{Name: name, Fields: fields})
	}

	positionType := placement("Position", graphql.Fields{
		"body":        &graphql.Field{Type: graphql.String},
		"body_id":     &graphql.Field{Type: graphql.String},
		"computed_ok": &graphql.Field{Type: graphql.Boolean},
		"error":       &graphql.Field{Type: graphql.String},
	})
	cuspType := placement("HouseCusp", graphql.Fields{
		"house": &graphql.Field{Type: graphql.Int},
	})
	angleType := placement("Angle", graphql.Fields{
		"kind": &graphql.Field{Type: graphql.String},
	})

	birthType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Birth",
		Fields: graphql.Fields{
			"year":             &graphql.Field{Type: graphql.Int},
			"month":            &graphql.Field{Type: graphql.Int},
			"day":              &graphql.Field{Type: graphql.Int},
			"hour":             &graphql.Field{Type: graphql.Int},
			"minute":           &graphql.Field{Type: graphql.Int},
			"utc_offset_hours": &graphql.Field{Type: graphql.Float},
			"time_known":       &graphql.Field{Type: graphql.Boolean},
		},
	})

	geoType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Geo",
		Fields: graphql.Fields{
			"latitude":  &graphql.Field{Type: graphql.Float},
			"longitude": &graphql.Field{Type: graphql.Float},
		},
	})

	chartType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Chart",
		Fields: graphql.Fields{
			"id":           &graphql.Field{Type: graphql.String},
			"birth":        &graphql.Field{Type: birthType},
			"geo":          &graphql.Field{Type: geoType},
			"julian_day":   &graphql.Field{Type: graphql.Float},
			"house_system": &graphql.Field{Type: graphql.String},
			"positions":    &graphql.Field{Type: graphql.NewList(positionType)},
			"houses":       &graphql.Field{Type: graphql.NewList(cuspType)},
			"angles":       &graphql.Field{Type: graphql.NewList(angleType)},
			"computed_at":  &graphql.Field{Type: graphql.String},
		},
	})

	catalogType := graphql.NewObject(graphql.ObjectConfig{
		Name: "CatalogEntry",
		Fields: graphql.Fields{
			"code":            &graphql.Field{Type: graphql.String},
			"id":              &graphql.Field{Type: graphql.String},
			"name":            &graphql.Field{Type: graphql.String},
			"ordinal":         &graphql.Field{Type: graphql.Int},
			"start_longitude": &graphql.Field{Type: graphql.Float},
		},
	})

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"chart": &graphql.Field{
				Type:        chartType,
				Description: "Get an archived chart by ID",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					chart, err := deps.Charts.GetChart(p.Context, p.Args["id"].(string))
					if err != nil {
						return nil, err
					}
					return chartToMap(chart), nil
				},
			},
			"charts": &graphql.Field{
				Type:        graphql.NewList(chartType),
				Description: "Recently computed charts, newest first",
				Args: graphql.FieldConfigArgument{
					"offset": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
					"limit":  &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 20},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					charts, _, err := deps.Charts.ListCharts(p.Context, p.Args["offset"].(int), p.Args["limit"].(int))
					if err != nil {
						return nil, err
					}
					out := make([]map[string]interface{}, 0, len(charts))
					for i := range charts {
						out = append(out, chartToMap(&charts[i]))
					}
					return out, nil
				},
			},
			"signs": &graphql.Field{
				Type:        graphql.NewList(catalogType),
				Description: "The twelve zodiac signs",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return catalogToMaps(usecases.SignCatalog()), nil
				},
			},
			"bodies": &graphql.Field{
				Type:        graphql.NewList(catalogType),
				Description: "The bodies placed in every chart",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					return catalogToMaps(usecases.BodyCatalog()), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"computeChart": &graphql.Field{
				Type:        chartType,
				Description: "Compute and archive a natal chart",
				Args: graphql.FieldConfigArgument{
					"date":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"time":       &graphql.ArgumentConfig{Type: graphql.String},
					"utc_offset": &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
					"latitude":   &graphql.ArgumentConfig{Type: graphql.Float},
					"longitude":  &graphql.ArgumentConfig{Type: graphql.Float},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					in := ChartInput{Date: p.Args["date"].(string), UTCOffset: p.Args["utc_offset"].(float64)}
					if t, ok := p.Args["time"].(string); ok {
						in.Time = &t
					}
					if lat, ok := p.Args["latitude"].(float64); ok {
						in.Latitude = &lat
					}
					if lon, ok := p.Args["longitude"].(float64); ok {
						in.Longitude = &lon
					}
					birth, geo, err := in.parse()
					if err != nil {
						return nil, err
					}
					chart, err := deps.Charts.BuildChart(p.Context, birth, geo)
					if err != nil {
						return nil, err
					}
					return chartToMap(chart), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

func chartToMap(c *domain.Chart) map[string]interface{} {
	positions := make([]map[string]interface{}, 0, len(c.Positions))
	for _, p := range c.Positions {
		m := map[string]interface{}{
			"body":        p.Body.Code(),
			"body_id":     p.BodyID,
			"computed_ok": p.OK,
		}
		if p.OK {
			m["longitude"] = p.Longitude
			m["sign"] = p.Sign.Code()
			m["sign_id"] = p.SignID
			m["degree_in_sign"] = p.DegreeInSign
		} else {
			m["error"] = p.Error
		}
		positions = append(positions, m)
	}

	houses := make([]map[string]interface{}, 0, len(c.Houses))
	for _, h := range c.Houses {
		houses = append(houses, map[string]interface{}{
			"house":          h.House,
			"longitude":      h.Longitude,
			"sign":           h.Sign.Code(),
			"sign_id":        h.SignID,
			"degree_in_sign": h.DegreeInSign,
		})
	}

	angles := make([]map[string]interface{}, 0, len(c.Angles))
	for _, a := range c.Angles {
		angles = append(angles, map[string]interface{}{
			"kind":           string(a.Kind),
			"longitude":      a.Longitude,
			"sign":           a.Sign.Code(),
			"sign_id":        a.SignID,
			"degree_in_sign": a.DegreeInSign,
		})
	}

	m := map[string]interface{}{
		"id": c.ID.String(),
		"birth": map[string]interface{}{
			"year":             c.Birth.Year,
			"month":            c.Birth.Month,
			"day":              c.Birth.Day,
			"hour":             c.Birth.Hour,
			"minute":           c.Birth.Minute,
			"utc_offset_hours": c.Birth.UTCOffsetHours,
			"time_known":       c.Birth.TimeKnown,
		},
		"julian_day":   float64(c.JulianDay),
		"house_system": string(c.HouseSystem),
		"positions":    positions,
		"houses":       houses,
		"angles":       angles,
		"computed_at":  c.ComputedAt.Format(time.RFC3339),
	}
	if c.Geo != nil {
		m["geo"] = map[string]interface{}{"latitude": c.Geo.Latitude, "longitude": c.Geo.Longitude}
	}
	return m
}

func catalogToMaps(entries []usecases.CatalogEntry) []map[string]interface{} {
	out := make([]map[string]interface{}, 0, len(entries))
	for _, e := range entries {
		m := map[string]interface{}{
			"code":    e.Code,
			"id":      e.ID,
			"name":    e.Name,
			"ordinal": e.Ordinal,
		}
		if e.StartLongitude != nil {
			m["start_longitude"] = *e.StartLongitude
		}
		out = append(out, m)
	}
	return out
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
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})

		return c.JSON(result)
	}
}
