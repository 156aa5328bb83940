package ai

import "strings"

type faqEntry struct {
	Keywords   []string
	Response   string
	Confidence float64
}

// faqCatalog is evaluated top to bottom and the first keyword hit wins,
// so the order here is load-bearing: more specific topics come first.
var faqCatalog = []faqEntry{
	{
		Keywords:   []string{"withdraw", "withdrawal", "payout"},
		Response:   "To withdraw funds, open the app, go to Wallet → Withdraw, and confirm the request with the 6-digit code our operations team issues. Withdrawals are processed within 24 hours on business days.",
		Confidence: 0.85,
	},
	{
		Keywords:   []string{"deposit", "top up", "fund my account"},
		Response:   "Deposits are available in the app under Wallet → Deposit. We accept bank transfer and major crypto assets; the minimum deposit is $50.",
		Confidence: 0.85,
	},
	{
		Keywords:   []string{"balance", "how much", "portfolio value"},
		Response:   "Your current balance and portfolio breakdown are shown on the app dashboard. Linked chat accounts can also use the /balance command here.",
		Confidence: 0.8,
	},
	{
		Keywords:   []string{"plan", "invest", "interest", "earn", "apy"},
		Response:   "We offer flexible and fixed-term investment plans with daily accrual. Current rates are listed in the app under Invest → Plans.",
		Confidence: 0.75,
	},
	{
		Keywords:   []string{"link", "connect", "account"},
		Response:   "To link this chat to your platform account, send a message like: email: you@example.com — using the email you registered with.",
		Confidence: 0.8,
	},
	{
		Keywords:   []string{"2fa", "security", "code", "verification"},
		Response:   "Security codes are 6-digit one-time codes that expire quickly. Never share them with anyone; our staff will never ask for your code.",
		Confidence: 0.8,
	},
	{
		Keywords:   []string{"fee", "commission", "cost"},
		Response:   "We charge no deposit fees. Withdrawal fees depend on the network or bank used and are shown before you confirm.",
		Confidence: 0.75,
	},
	{
		Keywords:   []string{"hours", "human", "agent", "speak to someone"},
		Response:   "Our support team is available 09:00–18:00 UTC on weekdays. I have flagged this conversation for a human agent.",
		Confidence: 0.6,
	},
}

const faqHandoffMessage = "I could not find an answer to that. I have forwarded your question to our support team and someone will get back to you shortly."

// matchFAQ does a case-insensitive substring scan over the ordered
// catalog. First match wins, not best match.
func matchFAQ(message string) (faqEntry, bool) {
	lower := strings.ToLower(message)
	for _, entry := range faqCatalog {
		for _, kw := range entry.Keywords {
			if strings.Contains(lower, kw) {
				return entry, true
			}
		}
	}
	return faqEntry{}, false
}
