package quote

import "cpq/backend/cpmain/internal/app/domains/services/svquote"

// QuoteHandler 报价 HTTP 处理器
type QuoteHandler struct {
	quoteService *svquote.QuoteService
}

// NewQuoteHandler 创建报价处理器实例
func NewQuoteHandler(quoteService *svquote.QuoteService) *QuoteHandler {
	return &QuoteHandler{
		quoteService: quoteService,
	}
}
