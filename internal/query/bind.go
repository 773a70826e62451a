package query

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/orakit-io/orakit/internal/errs"
)

// placeholders holds the bind markers found in one statement.
type placeholders struct {
	named      []string // :name markers, uppercased, in order of appearance
	positional int      // highest :N marker seen
}

// scanPlaceholders walks the statement and collects bind markers, skipping
// string literals, quoted identifiers and comments so a ':' inside
// 'text' or /* ... */ is never mistaken for a bind.
func scanPlaceholders(stmt string) placeholders {
	var found placeholders
	seen := map[string]bool{}

	for i := 0; i < len(stmt); i++ {
		switch c := stmt[i]; c {
		case '\'': // string literal, '' escapes a quote
			for i++; i < len(stmt); i++ {
				if stmt[i] == '\'' {
					if i+1 < len(stmt) && stmt[i+1] == '\'' {
						i++
						continue
					}
					break
				}
			}
		case '"': // quoted identifier
			for i++; i < len(stmt) && stmt[i] != '"'; i++ {
			}
		case '-':
			if i+1 < len(stmt) && stmt[i+1] == '-' {
				for i += 2; i < len(stmt) && stmt[i] != '\n'; i++ {
				}
			}
		case '/':
			if i+1 < len(stmt) && stmt[i+1] == '*' {
				end := strings.Index(stmt[i+2:], "*/")
				if end < 0 {
					return found
				}
				i += 2 + end + 1
			}
		case ':':
			start := i + 1
			j := start
			for j < len(stmt) && isBindChar(stmt[j]) {
				j++
			}
			if j == start {
				continue // lone colon, e.g. an assignment in PL/SQL text
			}
			marker := stmt[start:j]
			if n, err := strconv.Atoi(marker); err == nil {
				if n > found.positional {
					found.positional = n
				}
			} else {
				name := strings.ToUpper(marker)
				if !seen[name] {
					seen[name] = true
					found.named = append(found.named, name)
				}
			}
			i = j - 1
		}
	}
	return found
}

func isBindChar(c byte) bool {
	return c == '_' ||
		(c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9')
}

// validateBinds rejects statements whose placeholders are not fully
// covered by args, BEFORE anything is sent to the backend. An unbound
// placeholder is a syntax-category error carrying the statement text.
func validateBinds(stmt string, args []any) error {
	found := scanPlaceholders(stmt)

	if len(found.named) > 0 && found.positional > 0 {
		return errs.New(errs.Syntax, "statement mixes named and positional placeholders").WithStmt(stmt)
	}

	if len(found.named) > 0 {
		provided := map[string]bool{}
		for _, arg := range args {
			named, ok := arg.(sql.NamedArg)
			if !ok {
				return errs.New(errs.Syntax,
					"named placeholders require sql.Named arguments").WithStmt(stmt)
			}
			provided[strings.ToUpper(named.Name)] = true
		}
		for _, name := range found.named {
			if !provided[name] {
				return errs.New(errs.Syntax,
					fmt.Sprintf("unbound placeholder :%s", strings.ToLower(name))).WithStmt(stmt)
			}
		}
		return nil
	}

	if found.positional > len(args) {
		return errs.New(errs.Syntax,
			fmt.Sprintf("statement expects %d bind values, got %d", found.positional, len(args))).WithStmt(stmt)
	}
	return nil
}
