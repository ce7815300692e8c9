package handlers

import (
	"html/template"
	"strconv"
)

func formatPrice(p float64) string { return strconv.FormatFloat(p, 'f', 2, 64) }

func formatID(id int64) string { return strconv.FormatInt(id, 10) }

// TemplateFuncs are registered on the view engine.
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"price": formatPrice,
		"id":    formatID,
		"media": func(rel string) string {
			if rel == "" {
				return "/static/img/placeholder.svg"
			}
			return "/media/" + rel
		},
	}
}
