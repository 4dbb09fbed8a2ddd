package markdown

import "strings"

// table is a pipe table: one header row and at least one body row.
type table struct {
	header []string
	rows   [][]string
}

// isTableStart reports whether lines[i] opens a table: a piped header line,
// a separator line and at least one piped data line.
func isTableStart(lines []string, i int) bool {
	if i+2 >= len(lines) {
		return false
	}
	return isTableRow(lines[i]) && tableSepRe.MatchString(lines[i+1]) && isTableRow(lines[i+2])
}

func isTableRow(line string) bool {
	return strings.TrimSpace(line) != "" && strings.Contains(line, "|")
}

func scanTable(lines []string, start int) (*table, int) {
	t := &table{header: splitCells(lines[start])}
	i := start + 2
	for i < len(lines) && isTableRow(lines[i]) {
		t.rows = append(t.rows, splitCells(lines[i]))
		i++
	}
	return t, i
}

// splitCells trims the row, drops the outer pipes and any empty trailing cells.
func splitCells(line string) []string {
	row := strings.TrimSpace(line)
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")

	cells := strings.Split(row, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	for len(cells) > 0 && cells[len(cells)-1] == "" {
		cells = cells[:len(cells)-1]
	}
	return cells
}

func (t *table) html() string {
	var b strings.Builder
	b.WriteString("<table><thead><tr>")
	for _, cell := range t.header {
		b.WriteString("<th>")
		b.WriteString(renderInline(cell))
		b.WriteString("</th>")
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range t.rows {
		b.WriteString("<tr>")
		for _, cell := range row {
			b.WriteString("<td>")
			b.WriteString(renderInline(cell))
			b.WriteString("</td>")
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}
