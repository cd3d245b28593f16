package backend

import "finitefield.org/listing-console/internal/listing"

// DefaultCategories is served when the category lookup fails.
// The bag category reuses the interior id 100804.
func DefaultCategories() []listing.Category {
	return []listing.Category{
		{ID: "100371", Name: "パソコン・周辺機器"},
		{ID: "100804", Name: "インテリア・寝具・収納"},
		{ID: "100227", Name: "キッチン用品・食器・調理器具"},
		{ID: "101070", Name: "スポーツ・アウトドア"},
		{ID: "100316", Name: "美容・コスメ・香水"},
		{ID: "101240", Name: "おもちゃ・ホビー・ゲーム"},
		{ID: "101312", Name: "本・雑誌・コミック"},
		{ID: "100026", Name: "TV・オーディオ・カメラ"},
		{ID: "101164", Name: "腕時計"},
		{ID: "100804", Name: "バッグ・小物・ブランド雑貨"},
	}
}
