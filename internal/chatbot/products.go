package chatbot

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/sennacar/sennacar/internal/intent"
	"github.com/sennacar/sennacar/internal/models"
)

// storeErrorReply is the generic answer for persistence failures.
var storeErrorReply = models.ChatReply{
	Response: "Desculpe, ocorreu um erro ao consultar os produtos. Tente novamente.",
	Options:  topLevelOptions,
}

// inferCategory scans the raw message for known category keywords.
func inferCategory(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "insulfilm") || strings.Contains(lower, "insulfim"):
		return "insulfilm"
	case strings.Contains(lower, "multimídia") || strings.Contains(lower, "multimidia"):
		return "multimidia"
	case strings.Contains(lower, "ppf"):
		return "ppf"
	case strings.Contains(lower, "som") || strings.Contains(lower, "caixa"):
		return "som"
	}
	return ""
}

func formatProductLine(name string, price, labor float64) string {
	line := fmt.Sprintf("%s - R$%.2f", name, price)
	if labor > 0 {
		line += fmt.Sprintf(" + R$%.2f (instalação)", labor)
	}
	return line
}

// listCategory fetches the category's products, caches them on the
// session and enters the selection sub-flow.
func (e *Engine) listCategory(sess *models.ChatSession, category string) models.ChatReply {
	products, err := e.store.ListProductsByCategory(category)
	if err != nil {
		slog.Error("Engine.listCategory: product query failed", "error", err, "category", category)
		return storeErrorReply
	}
	if len(products) == 0 {
		return models.ChatReply{
			Response: fmt.Sprintf("Não encontrei produtos na categoria %s. Deseja ver outra categoria?", category),
			Options:  categoryOptions,
		}
	}

	var b strings.Builder
	b.WriteString("📋 LISTA DE PRODUTOS 📋\n\n")
	b.WriteString(fmt.Sprintf("🔹 %s:\n\n", strings.ToUpper(category)))
	catalog := make([]models.SelectedProduct, 0, len(products))
	for _, p := range products {
		b.WriteString(formatProductLine(p.Name, p.Price, p.LaborPrice))
		b.WriteString("\n")
		catalog = append(catalog, models.SelectedProduct{
			ProductID:  p.ID,
			Name:       p.Name,
			Category:   p.Category,
			Price:      p.Price,
			LaborPrice: p.LaborPrice,
		})
	}

	sess.Catalog = catalog
	sess.Category = category
	sess.State = models.StateSelectingProducts

	var options []string
	if len(sess.Selected) > 0 {
		b.WriteString("\nVocê já tem produtos selecionados. Selecione uma opção:")
		options = []string{"Quero comprar", "Ver meus produtos", "Agendar instalação", "Cancelar tudo"}
	} else {
		b.WriteString("\nGostaria de comprar algum desses produtos?")
		options = []string{"Quero comprar", "Ver outras categorias", "Cancelar tudo"}
	}
	return models.ChatReply{Response: b.String(), Options: options}
}

// listAllProducts renders the full catalog grouped by category and
// enters the selection sub-flow with everything cached.
func (e *Engine) listAllProducts(sess *models.ChatSession) models.ChatReply {
	products, err := e.store.ListProducts()
	if err != nil {
		slog.Error("Engine.listAllProducts: product query failed", "error", err)
		return storeErrorReply
	}
	if len(products) == 0 {
		return models.ChatReply{
			Response: "Nosso catálogo está vazio no momento. Volte em breve!",
			Options:  topLevelOptions,
		}
	}

	byCategory := make(map[string][]models.Product)
	var order []string
	for _, p := range products {
		key := strings.ToLower(p.Category)
		if _, seen := byCategory[key]; !seen {
			order = append(order, key)
		}
		byCategory[key] = append(byCategory[key], p)
	}

	var b strings.Builder
	b.WriteString("📋 LISTA DE PRODUTOS 📋\n\n")
	catalog := make([]models.SelectedProduct, 0, len(products))
	for _, cat := range order {
		b.WriteString(fmt.Sprintf("🔹 %s:\n\n", strings.ToUpper(cat)))
		for _, p := range byCategory[cat] {
			b.WriteString(formatProductLine(p.Name, p.Price, p.LaborPrice))
			b.WriteString("\n")
			catalog = append(catalog, models.SelectedProduct{
				ProductID:  p.ID,
				Name:       p.Name,
				Category:   p.Category,
				Price:      p.Price,
				LaborPrice: p.LaborPrice,
			})
		}
		b.WriteString("\n")
	}
	b.WriteString("Gostaria de comprar algum desses produtos?")

	sess.Catalog = catalog
	sess.Category = ""
	sess.State = models.StateSelectingProducts

	return models.ChatReply{
		Response: b.String(),
		Options:  []string{"Quero comprar", "Cancelar tudo"},
	}
}

// handleProductSelection processes messages while the session is picking
// products from the cached category listing.
func (e *Engine) handleProductSelection(ctx context.Context, sess *models.ChatSession, message string) models.ChatReply {
	lower := strings.ToLower(message)

	switch lower {
	case "quero comprar":
		if len(sess.Catalog) == 0 {
			return models.ChatReply{
				Response: "Por favor, primeiro liste os produtos de uma categoria.",
				Options:  categoryOptions,
			}
		}
		names := make([]string, 0, len(sess.Catalog))
		for _, p := range sess.Catalog {
			names = append(names, p.Name)
		}
		return models.ChatReply{Response: "Selecione o produto que deseja comprar:", Options: names}
	case "ver outras categorias", "ver categorias":
		return models.ChatReply{Response: "Escolha uma categoria:", Options: categoryOptions}
	case "ver meus produtos":
		return e.selectionSummary(sess)
	case "agendar instalação", "agendar instalacao", "finalizar":
		return e.startScheduling(sess)
	}

	// "remover N" drops the Nth selected product.
	if idx, ok := parseRemoveCommand(lower); ok {
		return e.removeSelection(sess, idx)
	}

	// Selection by 1-based index into the cached listing.
	if n, err := strconv.Atoi(strings.TrimSpace(message)); err == nil {
		if n < 1 || n > len(sess.Catalog) {
			return e.invalidSelectionReply(sess)
		}
		return e.addProduct(sess, sess.Catalog[n-1])
	}

	// Selection by exact name (case-insensitive). Names are checked
	// before category keywords: "Insulfilm G20" must add the product,
	// not re-list the insulfilm category.
	for _, p := range sess.Catalog {
		if strings.EqualFold(p.Name, message) {
			return e.addProduct(sess, p)
		}
	}

	// Contact data can arrive mid-selection, right after the scheduling
	// guard asked for it. Checked before category inference: a name or
	// email containing "som" or "ppf" is still contact data, not a
	// category switch. The selection survives the state change.
	if contact, ok := parseContact(message); ok {
		return e.beginContactConfirmation(sess, contact)
	}

	// A category name or keyword switches the listing.
	if cat := inferCategory(message); cat != "" {
		return e.listCategory(sess, cat)
	}

	if len(sess.Catalog) == 0 {
		return models.ChatReply{
			Response: "Por favor, primeiro liste os produtos de uma categoria.",
			Options:  categoryOptions,
		}
	}

	// A scheduling request phrased freely ("quero agendar") still works
	// mid-selection.
	if it, err := e.classifier.Classify(ctx, message); err == nil && it == intent.IntentStartScheduling {
		return e.startSchedulingDecision(sess)
	}

	return e.invalidSelectionReply(sess)
}

func (e *Engine) invalidSelectionReply(sess *models.ChatSession) models.ChatReply {
	names := make([]string, 0, len(sess.Catalog)+1)
	for _, p := range sess.Catalog {
		names = append(names, p.Name)
	}
	names = append(names, "Cancelar tudo")
	return models.ChatReply{
		Response: "Por favor, selecione um produto válido da lista.",
		Options:  names,
	}
}

func parseRemoveCommand(lower string) (int, bool) {
	rest, found := strings.CutPrefix(lower, "remover ")
	if !found {
		return 0, false
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return n, true
}

func (e *Engine) removeSelection(sess *models.ChatSession, idx int) models.ChatReply {
	if idx < 1 || idx > len(sess.Selected) {
		return models.ChatReply{
			Response: fmt.Sprintf("Índice inválido. Você tem %d produto(s) selecionado(s). Use 'remover N'.", len(sess.Selected)),
		}
	}
	removed := sess.Selected[idx-1]
	sess.Selected = append(sess.Selected[:idx-1], sess.Selected[idx:]...)
	reply := e.selectionSummary(sess)
	reply.Response = fmt.Sprintf("🗑️ Produto removido: %s\n\n%s", removed.Name, reply.Response)
	return reply
}

// addProduct appends the product to the selection and echoes a running
// subtotal once more than one product is picked.
func (e *Engine) addProduct(sess *models.ChatSession, p models.SelectedProduct) models.ChatReply {
	sess.Selected = append(sess.Selected, p)

	var b strings.Builder
	b.WriteString("✅ Produto adicionado:\n")
	b.WriteString(formatProductLine(p.Name, p.Price, p.LaborPrice))
	b.WriteString("\n")

	if len(sess.Selected) > 1 {
		b.WriteString("\n📦 Seus produtos selecionados:\n")
		for i, sel := range sess.Selected {
			b.WriteString(fmt.Sprintf("%d. %s - R$%.2f\n", i+1, sel.Name, sel.Subtotal()))
		}
		b.WriteString(fmt.Sprintf("\n💰 Total: R$%.2f\n", sess.SelectionTotal()))
	}
	b.WriteString("\nO que deseja fazer agora?")

	return models.ChatReply{
		Response: b.String(),
		Options:  []string{"Adicionar mais produtos", "Agendar instalação", "Cancelar tudo"},
	}
}

// selectionSummary renders the numbered selection with the running
// total. Always available once at least one product is selected.
func (e *Engine) selectionSummary(sess *models.ChatSession) models.ChatReply {
	if len(sess.Selected) == 0 {
		return models.ChatReply{
			Response: "Você ainda não selecionou nenhum produto.",
			Options:  []string{"Ver serviços", "Agendar", "Tirar dúvida"},
		}
	}

	var b strings.Builder
	b.WriteString("📦 SEUS PRODUTOS SELECIONADOS:\n\n")
	for i, p := range sess.Selected {
		b.WriteString(fmt.Sprintf("%d. %s - R$%.2f\n", i+1, p.Name, p.Subtotal()))
	}
	b.WriteString(fmt.Sprintf("\n💰 TOTAL: R$%.2f\n\n", sess.SelectionTotal()))
	b.WriteString("O que deseja fazer agora?")

	return models.ChatReply{
		Response: b.String(),
		Options:  []string{"Adicionar mais produtos", "Agendar instalação", "Cancelar tudo"},
	}
}
