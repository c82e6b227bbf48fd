package commands

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"pedidobot/internal/library"
	"pedidobot/internal/pedidos"
)

var priorityIcons = map[pedidos.Priority]string{
	pedidos.PriorityAlta:  "🔴",
	pedidos.PriorityMedia: "🟡",
	pedidos.PriorityBaja:  "🟢",
}

var stateIcons = map[pedidos.State]string{
	pedidos.StatePendiente:  "⏳",
	pedidos.StateEnProceso:  "🔧",
	pedidos.StateCompletado: "✅",
	pedidos.StateCancelado:  "🚫",
}

// parseID accepts "12" or "#12".
func parseID(raw string) (int64, bool) {
	raw = strings.TrimPrefix(strings.TrimSpace(raw), "#")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func formatLine(req *pedidos.Request) string {
	line := fmt.Sprintf("%s #%d %s · %s", priorityIcons[req.Priority], req.ID, req.DisplayTitle(), req.State.Label())
	if req.Votes > 0 {
		line += fmt.Sprintf(" · 👍 %d", req.Votes)
	}
	return line
}

func formatList(header string, reqs []*pedidos.Request) string {
	lines := make([]string, 0, len(reqs)+1)
	lines = append(lines, header)
	for _, req := range reqs {
		lines = append(lines, formatLine(req))
	}
	return strings.Join(lines, "\n")
}

func formatDetail(req *pedidos.Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "📄 Pedido #%d\n", req.ID)
	fmt.Fprintf(&b, "Título: %s\n", req.DisplayTitle())
	if req.Description != "" {
		fmt.Fprintf(&b, "Descripción: %s\n", req.Description)
	}
	fmt.Fprintf(&b, "Prioridad: %s %s\n", priorityIcons[req.Priority], req.Priority)
	fmt.Fprintf(&b, "Estado: %s %s\n", stateIcons[req.State], req.State.Label())
	fmt.Fprintf(&b, "Votos: %d\n", req.Votes)
	fmt.Fprintf(&b, "Solicitado por: %s\n", req.RequesterID)
	fmt.Fprintf(&b, "Creado: %s", req.CreatedAt.Local().Format(time.DateTime))
	if req.Attachment != nil {
		fmt.Fprintf(&b, "\nAdjunto: %s", req.Attachment.OriginalName)
	}
	if p := req.Processing; p != nil {
		fmt.Fprintf(&b, "\nÚltima búsqueda: %s (%s)", p.Note, p.ProcessedAt.Local().Format(time.DateTime))
		for _, m := range p.Matches {
			fmt.Fprintf(&b, "\n  • archivo %d (puntaje %.0f)", m.LibraryItemID, m.Score)
		}
	}
	return b.String()
}

func formatMatches(env Env, id int64, matches []library.Scored) string {
	lines := []string{fmt.Sprintf("🔎 Pedido #%d: %d coincidencia(s)", id, len(matches))}
	for i, m := range matches {
		title := m.Item.Title
		if title == "" {
			title = m.Item.OriginalName
		}
		if m.Item.Chapter != "" {
			title += " cap " + m.Item.Chapter
		}
		lines = append(lines, fmt.Sprintf("%d. [%d] %s (puntaje %.0f)", i+1, m.Item.ID, title, m.Score))
	}
	lines = append(lines, "Para recibir un archivo: "+env.cmd("enviar", "<id>"))
	return strings.Join(lines, "\n")
}

func formatNoMatches(env Env, id int64) string {
	return fmt.Sprintf("🔎 Pedido #%d: sin coincidencias en la biblioteca.\nSube el archivo al canal proveedor y vuelve a intentar con %s",
		id, env.cmd("procesarpedido", strconv.FormatInt(id, 10)))
}
