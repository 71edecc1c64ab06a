/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package config

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"github.com/suparena/entitycache"
)

// Cycle is a loop of bind-mode bindings, as store names from the first
// store back to itself.
type Cycle []string

func (c Cycle) String() string {
	return strings.Join(c, " -> ")
}

// Cycles returns the loops among bind-mode bindings, self-references
// included, in a stable order.
func (c *Config) Cycles() []Cycle {
	graph := make(map[string][]string)
	for _, s := range c.Stores {
		graph[s.Name] = nil
	}
	for _, b := range c.Bindings {
		if m, err := entitycache.ParseBindingMode(b.Mode); err == nil && m == entitycache.PresentMode {
			continue
		}
		if !slices.Contains(graph[b.Store], b.Target) {
			graph[b.Store] = append(graph[b.Store], b.Target)
		}
	}
	for node := range graph {
		sort.Strings(graph[node])
	}

	var cycles []Cycle
	for _, scc := range stronglyConnected(graph) {
		if len(scc) > 1 || slices.Contains(graph[scc[0]], scc[0]) {
			cycles = append(cycles, cyclePath(scc, graph))
		}
	}
	sort.Slice(cycles, func(i, j int) bool { return cycles[i][0] < cycles[j][0] })
	return cycles
}

// Report renders the stores, bindings and lists of the configuration and
// the bind-mode cycles among them.
func (c *Config) Report() string {
	var sb strings.Builder

	sb.WriteString("stores:\n")
	for _, s := range c.Stores {
		backend := "none"
		if s.Source != nil {
			backend = s.Source.Backend
		}
		fmt.Fprintf(&sb, "  %s (key: %s, source: %s)\n", s.Name, s.PrimaryKey, backend)
	}

	if len(c.Bindings) > 0 {
		sb.WriteString("bindings:\n")
		for _, b := range c.Bindings {
			fmt.Fprintf(&sb, "  %s.%s -> %s [%s]\n", b.Store, b.Path, b.Target, b.Mode)
		}
	}

	if len(c.Lists) > 0 {
		sb.WriteString("lists:\n")
		for _, l := range c.Lists {
			kind := "paginated"
			if l.Keyed {
				kind = "keyed"
			}
			target := l.Target
			if target == "" {
				target = "(none)"
			}
			fmt.Fprintf(&sb, "  %s (%s) -> %s [%s]\n", l.Name, kind, target, l.Mode)
		}
	}

	if cycles := c.Cycles(); len(cycles) > 0 {
		sb.WriteString("cycles:\n")
		for _, cy := range cycles {
			fmt.Fprintf(&sb, "  %s\n", cy)
		}
	}
	return sb.String()
}

// stronglyConnected finds strongly connected components with Tarjan's
// algorithm. Members of each component are sorted.
func stronglyConnected(graph map[string][]string) [][]string {
	var (
		index   = 0
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range graph[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sort.Strings(scc)
			sccs = append(sccs, scc)
		}
	}

	nodes := make([]string, 0, len(graph))
	for node := range graph {
		nodes = append(nodes, node)
	}
	sort.Strings(nodes)
	for _, node := range nodes {
		if _, visited := indices[node]; !visited {
			strongConnect(node)
		}
	}
	return sccs
}

// cyclePath walks the component from its smallest member, following the
// smallest unvisited neighbour, and closes the loop.
func cyclePath(scc []string, graph map[string][]string) Cycle {
	start := scc[0]
	path := Cycle{start}
	visited := map[string]bool{start: true}

	for current := start; ; {
		next := ""
		for _, w := range graph[current] {
			if slices.Contains(scc, w) && !visited[w] {
				next = w
				break
			}
		}
		if next == "" {
			break
		}
		path = append(path, next)
		visited[next] = true
		current = next
	}
	return append(path, start)
}
