package agent

import "github.com/spetersoncode/sage"

// Variant is a named preset of system prompt and provider defaults. Variants
// differ only in configuration; they all run the same loop.
type Variant struct {
	Name         string
	SystemPrompt string
	Provider     sage.ProviderConfig
}

// VariantResearch is the English research assistant on Cerebras.
var VariantResearch = Variant{
	Name: "research",
	SystemPrompt: `You are a helpful AI Research Assistant.
You have access to the following tools:
1. multiply: Multiply two integers.
2. add: Add two integers.
3. search_duckduckgo: Search the web.

Always use the tools provided. Do not hallucinate answers for math.`,
	Provider: sage.DefaultProviderConfig(),
}

// VariantCerebrasZH is the Traditional Chinese research assistant whose
// prompt restricts the model to the three built-in tools.
var VariantCerebrasZH = Variant{
	Name: "cerebras-zh",
	SystemPrompt: `你是一位研究助理。你只能使用以下提供的工具：
1. multiply: 相乘兩個整數
2. add: 相加兩個整數
3. search_duckduckgo: 搜尋網路

請嚴格依照工具定義進行調用。`,
	Provider: sage.DefaultProviderConfig(),
}

// Variants lists the presets by name.
var Variants = map[string]Variant{
	VariantResearch.Name:   VariantResearch,
	VariantCerebrasZH.Name: VariantCerebrasZH,
}
