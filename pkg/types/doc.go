/*
Package types defines the resources exchanged with the platform backend.

Agents, roles, users, general settings and plugins are modelled after the
JSON the backend sends, field for field. Create and update requests use
pointer fields so that "not set" and "set to the zero value" stay distinct
on the wire; the backend treats absent fields as unchanged.

Booleans travel as the integers 0 and 1 (Flag). Agent status travels as a
small integer code (AgentStatus) whose names are used by the CLI and by the
list filters.

General settings carry free-form data described by an optional schema; the
data is a settings.Object so every value keeps its JSON kind.
*/
package types
