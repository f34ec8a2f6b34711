// Command openapi-compat reports changes between two Swagger documents that
// would break existing qipu clients. Without -revision the document built
// into this binary is the revision.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"

	"qipu/docs"

	"gopkg.in/yaml.v3"
)

var supportedMethods = map[string]struct{}{
	"get":     {},
	"put":     {},
	"post":    {},
	"delete":  {},
	"patch":   {},
	"head":    {},
	"options": {},
}

type parameter struct {
	Name     string `yaml:"name"`
	In       string `yaml:"in"`
	Required bool   `yaml:"required"`
}

type operation struct {
	Responses  map[string]yaml.Node `yaml:"responses"`
	Parameters []parameter          `yaml:"parameters"`
}

// document is the subset of a Swagger 2.0 file the check reads. YAML is a
// superset of JSON, so both encodings load.
type document struct {
	Paths map[string]map[string]operation
}

func main() {
	basePath := flag.String("base", "", "base swagger document (JSON or YAML)")
	revisionPath := flag.String("revision", "", "revision swagger document; defaults to the built-in one")
	flag.Parse()

	if strings.TrimSpace(*basePath) == "" {
		fmt.Fprintln(os.Stderr, "usage: openapi-compat -base <path> [-revision <path>]")
		os.Exit(2)
	}

	base, err := loadFile(*basePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load base document: %v\n", err)
		os.Exit(1)
	}
	var revision *document
	if *revisionPath == "" {
		revision, err = parse([]byte(docs.SwaggerInfo.ReadDoc()))
	} else {
		revision, err = loadFile(*revisionPath)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load revision document: %v\n", err)
		os.Exit(1)
	}

	issues := compare(base, revision)
	if len(issues) > 0 {
		fmt.Fprintln(os.Stderr, "backward compatibility check failed:")
		for _, issue := range issues {
			fmt.Fprintf(os.Stderr, "- %s\n", issue)
		}
		os.Exit(1)
	}

	fmt.Println("openapi compatibility check passed")
}

func loadFile(path string) (*document, error) {
	// #nosec G304: path comes from CLI flags in a dev tool
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return parse(raw)
}

func parse(raw []byte) (*document, error) {
	var top struct {
		Paths map[string]map[string]yaml.Node `yaml:"paths"`
	}
	if err := yaml.Unmarshal(raw, &top); err != nil {
		return nil, err
	}
	if top.Paths == nil {
		return nil, fmt.Errorf("missing top-level paths field")
	}

	// Method keys are matched case-insensitively; anything else under a
	// path (parameters, $ref) is not an operation.
	doc := &document{Paths: make(map[string]map[string]operation, len(top.Paths))}
	for p, items := range top.Paths {
		ops := make(map[string]operation, len(items))
		for key, node := range items {
			method := strings.ToLower(strings.TrimSpace(key))
			if _, ok := supportedMethods[method]; !ok {
				continue
			}
			var op operation
			if err := node.Decode(&op); err != nil {
				return nil, fmt.Errorf("%s %s: %w", strings.ToUpper(method), p, err)
			}
			ops[method] = op
		}
		doc.Paths[p] = ops
	}
	return doc, nil
}

func compare(base, revision *document) []string {
	var issues []string

	for path, baseOps := range base.Paths {
		revOps, ok := revision.Paths[path]
		if !ok && len(baseOps) > 0 {
			issues = append(issues, fmt.Sprintf("removed path: %s", path))
			continue
		}

		for method, baseOp := range baseOps {
			revOp, ok := revOps[method]
			if !ok {
				issues = append(issues, fmt.Sprintf("removed operation: %s %s", strings.ToUpper(method), path))
				continue
			}

			for code := range baseOp.Responses {
				if _, ok := revOp.Responses[code]; !ok {
					issues = append(issues, fmt.Sprintf("removed response code: %s %s -> %s",
						strings.ToUpper(method), path, strings.ToUpper(code)))
				}
			}

			known := make(map[string]bool, len(baseOp.Parameters))
			for _, p := range baseOp.Parameters {
				known[p.In+":"+p.Name] = p.Required
			}
			for _, p := range revOp.Parameters {
				if !p.Required {
					continue
				}
				if wasRequired, ok := known[p.In+":"+p.Name]; !ok || !wasRequired {
					issues = append(issues, fmt.Sprintf("new required parameter: %s %s -> %s %s",
						strings.ToUpper(method), path, p.In, p.Name))
				}
			}
		}
	}

	sort.Strings(issues)
	return issues
}
