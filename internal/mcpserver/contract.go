package mcpserver

// BoardFormatContract is the canonical board document format served to MCP
// clients as a resource and via the get_board_contract tool.
const BoardFormatContract = `# Tavla Board Document Format

A board is a single JSON document. It is always read and written whole.

## Structure

` + "```json" + `
{
  "name": "Trip Planning",
  "columns": {
    "backlog": {
      "name": "Backlog",
      "tasks": ["book flights", "reserve hotel"]
    },
    "2026-09-01": {
      "name": "Mon 01.09.",
      "tasks": []
    }
  }
}
` + "```" + `

## Rules

- ` + "`name`" + ` is the board's display name. It may contain spaces.
- ` + "`columns`" + ` maps a column key to a column object. Keys are free-form
  identifiers; date-keyed columns conventionally use ISO dates (YYYY-MM-DD).
- Each column has a ` + "`name`" + ` (display label) and a ` + "`tasks`" + `
  array of strings, ordered top to bottom.
- Tasks are plain text. Empty or whitespace-only entries are ignored when
  boards are rendered, and repeated identical entries collapse to the first
  occurrence.
- Board ids (not part of the document) contain only letters and digits.
  The id ` + "`defaultData`" + ` is reserved for the board template.

## Semantics

- Writes replace the whole document. There is no field-level patching, so
  read the current document, modify it, and write it back.
- Reading a board that does not exist creates it from the shared template.
  Only explicit deletion removes a board.
`
