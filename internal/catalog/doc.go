// Package catalog holds the static table of workflow definitions.
//
// A definition is an immutable, ordered pipeline of steps for one
// category of task (feature, bugfix, release, ...). The engine copies a
// definition's pipeline into a workflow instance at start time and never
// reads the catalog again for that instance.
package catalog
