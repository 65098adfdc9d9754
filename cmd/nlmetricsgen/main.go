// Command nlmetricsgen regenerates metrics/generated_collector.go from the
// `nl:"..."` struct tags on nlconn.Stats.
package main

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log"
	"os"
	"reflect"
	"strings"
	"text/template"
)

const outputPath = "metrics/generated_collector.go"

// Metric is one field of nlconn.Stats to expose as a Prometheus metric, as
// found by parsing its `nl` struct tag.
type Metric struct {
	Name      string
	FieldName string
	Help      string
	Type      string
}

func main() {
	fset := token.NewFileSet()
	node, err := parser.ParseFile(fset, "endpoint.go", nil, parser.ParseComments)
	if err != nil {
		log.Fatal(err)
	}

	var metrics []Metric
	ast.Inspect(node, func(n ast.Node) bool {
		s, ok := n.(*ast.StructType)
		if !ok {
			return true
		}

		for _, f := range s.Fields.List {
			if f.Tag == nil || len(f.Names) == 0 {
				continue
			}
			tag := reflect.StructTag(strings.Trim(f.Tag.Value, "`"))
			nlTag, ok := tag.Lookup("nl")
			if !ok {
				continue
			}

			var metric Metric
			metric.FieldName = f.Names[0].Name
			tagString := nlTag
			for tagString != "" {
				i := strings.Index(tagString, "=")
				if i == -1 {
					log.Printf("malformed tag (missing =): %s [%s]", tagString, metric.FieldName)
					break
				}
				key := tagString[:i]
				tagString = tagString[i+1:]

				var value string
				if strings.HasPrefix(tagString, "'") {
					tagString = tagString[1:]
					j := strings.Index(tagString, "'")
					if j == -1 {
						log.Printf("malformed tag (missing '): %s [%s]", tagString, metric.FieldName)
						break
					}
					value = tagString[:j]
					tagString = tagString[j+1:]
					if strings.HasPrefix(tagString, ",") {
						tagString = tagString[1:]
					}
				} else {
					j := strings.Index(tagString, ",")
					if j == -1 {
						value = tagString
						tagString = ""
					} else {
						value = tagString[:j]
						tagString = tagString[j+1:]
					}
				}

				switch key {
				case "name":
					metric.Name = value
				case "prom_type":
					switch value {
					case "gauge":
						metric.Type = "Gauge"
					case "counter":
						metric.Type = "Counter"
					}
				case "prom_help":
					metric.Help = value
				}
			}
			metrics = append(metrics, metric)
		}
		return false
	})

	t, err := template.ParseFiles("cmd/nlmetricsgen/template.tmpl")
	if err != nil {
		log.Fatal(err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, struct{ Metrics []Metric }{Metrics: metrics}); err != nil {
		log.Fatal(err)
	}

	if err := os.WriteFile(outputPath, buf.Bytes(), 0644); err != nil {
		log.Fatal(err)
	}

	fmt.Printf("Generated %s\n", outputPath)
}
