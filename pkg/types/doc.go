// Package types defines the story entity model, the persistence Backend
// interface, the configuration schema, and the standard errors shared by
// every Storyflow component.
package types
