//                           _       _
// __      _____  __ ___   ___  __ _| |_ ___
// \ \ /\ / / _ \/ _` \ \ / / |/ _` | __/ _ \
//  \ V  V /  __/ (_| |\ V /| | (_| | ||  __/
//   \_/\_/ \___|\__,_| \_/ |_|\__,_|\__\___|
//
//  Copyright © 2016 - 2026 Weaviate B.V. All rights reserved.
//
//  CONTACT: hello@weaviate.io
//

// Package errorcompounder collects every problem found while validating a
// configuration so they can be reported at once.
package errorcompounder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

type ErrorCompounder interface {
	Add(err error)
	Addf(format string, a ...any)
	AddWrapf(err error, format string, a ...any)
	// AddGroups files err under a nested group, e.g. the key of the property
	// that is misconfigured.
	AddGroups(err error, groups ...string)

	Empty() bool
	Len() int

	First() error
	ToError() error
}

func New() ErrorCompounder {
	return &errorCompounder{top: &entry{}}
}

type errorCompounder struct {
	top *entry
}

func (ec *errorCompounder) Add(err error) {
	if err != nil {
		ec.top.errors = append(ec.top.errors, err)
	}
}

func (ec *errorCompounder) Addf(format string, a ...any) {
	ec.top.errors = append(ec.top.errors, fmt.Errorf(format, a...))
}

func (ec *errorCompounder) AddWrapf(err error, format string, a ...any) {
	if err != nil {
		ec.top.errors = append(ec.top.errors, errors.Wrapf(err, format, a...))
	}
}

func (ec *errorCompounder) AddGroups(err error, groups ...string) {
	if err == nil {
		return
	}

	target := ec.top
	for _, name := range groups {
		if target.groups == nil {
			target.groups = map[string]*entry{}
		}
		group, ok := target.groups[name]
		if !ok {
			group = &entry{}
			target.groups[name] = group
		}
		target = group
	}
	target.errors = append(target.errors, err)
}

func (ec *errorCompounder) Len() int {
	return ec.top.len()
}

func (ec *errorCompounder) Empty() bool {
	return ec.top.len() == 0
}

func (ec *errorCompounder) First() error {
	return ec.top.first()
}

// ToError joins all errors into one. Groups are rendered in name order as
// "name": {...} after the plain errors of their level.
func (ec *errorCompounder) ToError() error {
	if ec.Empty() {
		return nil
	}

	var b strings.Builder
	ec.top.write(&b)
	return errors.New(b.String())
}

type entry struct {
	errors []error
	groups map[string]*entry
}

func (e *entry) groupNames() []string {
	names := make([]string, 0, len(e.groups))
	for name, group := range e.groups {
		if group.len() > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

func (e *entry) write(b *strings.Builder) {
	sep := ""
	for _, err := range e.errors {
		b.WriteString(sep)
		b.WriteString(err.Error())
		sep = ", "
	}
	for _, name := range e.groupNames() {
		b.WriteString(sep)
		fmt.Fprintf(b, "%q: {", name)
		e.groups[name].write(b)
		b.WriteString("}")
		sep = ", "
	}
}

func (e *entry) first() error {
	if len(e.errors) > 0 {
		return e.errors[0]
	}
	for _, name := range e.groupNames() {
		if err := e.groups[name].first(); err != nil {
			return err
		}
	}
	return nil
}

func (e *entry) len() int {
	n := len(e.errors)
	for _, group := range e.groups {
		n += group.len()
	}
	return n
}
