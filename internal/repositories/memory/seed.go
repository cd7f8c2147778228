package memory

import domain "github.com/my-store/api/internal/domain"

func int64Ptr(v int64) *int64 { return &v }

// SeedCatalog returns the demo marketplace listings served by the storefront.
// Prices and shipping are in cents.
func SeedCatalog() []domain.Product {
	return []domain.Product{
		{
			ID:          "prod-001",
			Title:       "Vintage Polaroid SX-70 Camera",
			Description: "Fully working SX-70 Land Camera with original leather case. Film tested last month.",
			Price:       18900,
			Shipping:    1200,
			ImageURL:    "https://images.my-store.test/products/prod-001.jpg",
			Category:    "Electronics",
			Seller:      "retro_lens",
			Condition:   domain.ConditionUsed,
		},
		{
			ID:          "prod-002",
			Title:       "Noise Cancelling Headphones WH-1000XM4",
			Description: "Sealed in box, never opened. Includes carrying case and airplane adapter.",
			Price:       24800,
			Shipping:    0,
			ImageURL:    "https://images.my-store.test/products/prod-002.jpg",
			Category:    "Electronics",
			Seller:      "audio_depot",
			Condition:   domain.ConditionNew,
		},
		{
			ID:            "prod-003",
			Title:         "1987 Air Jordan 1 Retro High",
			Description:   "Size 10.5, light wear on soles. Stored in a smoke-free home.",
			Price:         0,
			CurrentBid:    int64Ptr(41500),
			BuyItNowPrice: int64Ptr(65000),
			Shipping:      1500,
			ImageURL:      "https://images.my-store.test/products/prod-003.jpg",
			Category:      "Fashion",
			Seller:        "sneaker_vault",
			Condition:     domain.ConditionUsed,
			IsAuction:     true,
			TimeLeft:      "2d 14h",
			Bids:          23,
			Watchers:      141,
		},
		{
			ID:          "prod-004",
			Title:       "Mechanical Keyboard 75% Hot-Swap",
			Description: "Refurbished by the manufacturer. Gasket mount, PBT keycaps, brown switches.",
			Price:       8900,
			Shipping:    800,
			ImageURL:    "https://images.my-store.test/products/prod-004.jpg",
			Category:    "Electronics",
			Seller:      "keeb_garage",
			Condition:   domain.ConditionRefurbished,
		},
		{
			ID:          "prod-005",
			Title:       "Hand-Thrown Ceramic Mug Set (4)",
			Description: "Stoneware mugs glazed in matte ocean blue. Dishwasher and microwave safe.",
			Price:       5600,
			Shipping:    950,
			ImageURL:    "https://images.my-store.test/products/prod-005.jpg",
			Category:    "Home & Garden",
			Seller:      "clay_and_co",
			Condition:   domain.ConditionNew,
		},
		{
			ID:            "prod-006",
			Title:         "First Edition 'Dune' Hardcover",
			Description:   "1965 Chilton first edition, second printing. Dust jacket shows shelf wear.",
			Price:         0,
			CurrentBid:    int64Ptr(89000),
			BuyItNowPrice: int64Ptr(150000),
			Shipping:      600,
			ImageURL:      "https://images.my-store.test/products/prod-006.jpg",
			Category:      "Collectibles",
			Seller:        "rare_pages",
			Condition:     domain.ConditionUsed,
			IsAuction:     true,
			TimeLeft:      "6h 12m",
			Bids:          47,
			Watchers:      312,
		},
		{
			ID:          "prod-007",
			Title:       "Carbon Road Bike Frame 54cm",
			Description: "Used one season, no cracks or repairs. Headset and seatpost clamp included.",
			Price:       72000,
			Shipping:    4500,
			ImageURL:    "https://images.my-store.test/products/prod-007.jpg",
			Category:    "Sporting Goods",
			Seller:      "velo_works",
			Condition:   domain.ConditionUsed,
		},
		{
			ID:          "prod-008",
			Title:       "Wool Overcoat, Charcoal, Medium",
			Description: "Tailored fit, fully lined. Worn twice; dry cleaned before listing.",
			Price:       13500,
			Shipping:    1100,
			ImageURL:    "https://images.my-store.test/products/prod-008.jpg",
			Category:    "Fashion",
			Seller:      "city_thread",
			Condition:   domain.ConditionUsed,
		},
	}
}
