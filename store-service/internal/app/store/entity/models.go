package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Product представляет товар магазина вместе с упорядоченными медиа
type Product struct {
	ID           uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	MerchantID   uuid.UUID `json:"merchantId" gorm:"type:uuid;not null;index"`
	CategoryID   uuid.UUID `json:"categoryId" gorm:"type:uuid;not null;index"`
	Slug         string    `json:"slug" gorm:"type:varchar(255);not null;uniqueIndex"`
	Title        string    `json:"title" gorm:"type:varchar(255);not null"`
	Price        int64     `json:"price" gorm:"not null"` // В минорных единицах валюты
	Rating       int       `json:"rating" gorm:"not null"`
	Description  string    `json:"description" gorm:"type:text;not null"`
	Manufacturer string    `json:"manufacturer" gorm:"type:varchar(255);not null"`
	InStock      int       `json:"inStock" gorm:"not null"`
	MainImage    string    `json:"mainImage" gorm:"type:varchar(255);not null"` // Имя файла в public, денормализовано из Image
	CreatedAt    time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt    time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	Images   []Image        `json:"images" gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Videos   []ProductVideo `json:"videos" gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Category *Category      `json:"category,omitempty" gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
	Merchant *Merchant      `json:"-" gorm:"foreignKey:MerchantID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (Product) TableName() string {
	return "products"
}

// Image - изображение товара, порядок показа задаётся Order
type Image struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `json:"productID" gorm:"type:uuid;not null;uniqueIndex:idx_images_product_order,priority:1"`
	Image     string    `json:"image" gorm:"type:varchar(255);not null"`
	Order     int       `json:"order" gorm:"column:sort_order;not null;uniqueIndex:idx_images_product_order,priority:2"`
	AltText   string    `json:"altText" gorm:"type:varchar(255)"`
}

func (Image) TableName() string {
	return "images"
}

// ProductVideo - видео товара, жизненный цикл как у Image
type ProductVideo struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	ProductID uuid.UUID `json:"productId" gorm:"type:uuid;not null;uniqueIndex:idx_product_videos_product_order,priority:1"`
	VideoURL  string    `json:"videoUrl" gorm:"type:varchar(255);not null"`
	Title     string    `json:"title" gorm:"type:varchar(255)"`
	Order     int       `json:"order" gorm:"column:sort_order;not null;uniqueIndex:idx_product_videos_product_order,priority:2"`
}

func (ProductVideo) TableName() string {
	return "product_videos"
}

// Category - категория товаров, name используется в URL
type Category struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name      string    `json:"name" gorm:"type:varchar(100);not null;uniqueIndex"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

func (Category) TableName() string {
	return "categories"
}

type MerchantStatus string

const (
	MerchantStatusActive   MerchantStatus = "ACTIVE"
	MerchantStatusInactive MerchantStatus = "INACTIVE"
)

// Merchant - продавец, владеющий товарами
type Merchant struct {
	ID          uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string         `json:"name" gorm:"type:varchar(255);not null"`
	Email       *string        `json:"email" gorm:"type:varchar(255)"`
	Phone       *string        `json:"phone" gorm:"type:varchar(50)"`
	Address     *string        `json:"address" gorm:"type:text"`
	Description *string        `json:"description" gorm:"type:text"`
	Status      MerchantStatus `json:"status" gorm:"type:varchar(20);not null"`
	CreatedAt   time.Time      `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `json:"updatedAt" gorm:"autoUpdateTime"`

	Products []Product `json:"products,omitempty" gorm:"foreignKey:MerchantID"`
}

func (Merchant) TableName() string {
	return "merchants"
}

// User - покупатель или администратор
type User struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Email     string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash
	Role      string    `json:"role" gorm:"type:varchar(50);not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
}

func (User) TableName() string {
	return "users"
}

// CustomerOrder - заголовок заказа покупателя
type CustomerOrder struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name        string    `json:"name" gorm:"type:varchar(255);not null"`
	Lastname    string    `json:"lastname" gorm:"type:varchar(255);not null"`
	Email       string    `json:"email" gorm:"type:varchar(255);not null"`
	Phone       string    `json:"phone" gorm:"type:varchar(50);not null"`
	Address     string    `json:"adress" gorm:"type:text;not null"`
	City        string    `json:"city" gorm:"type:varchar(255);not null"`
	Country     string    `json:"country" gorm:"type:varchar(255);not null"`
	PostalCode  string    `json:"postalCode" gorm:"type:varchar(20);not null"`
	OrderNotice string    `json:"orderNotice" gorm:"type:text"`
	Status      string    `json:"status" gorm:"type:varchar(50);not null"`
	Total       int64     `json:"total" gorm:"not null"`
	DateTime    time.Time `json:"dateTime" gorm:"not null;index"`

	Products []CustomerOrderProduct `json:"products,omitempty" gorm:"foreignKey:CustomerOrderID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (CustomerOrder) TableName() string {
	return "customer_orders"
}

// CustomerOrderProduct - позиция заказа. Её наличие запрещает удаление товара
type CustomerOrderProduct struct {
	ID              uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CustomerOrderID uuid.UUID `json:"customerOrderId" gorm:"type:uuid;not null;index"`
	ProductID       uuid.UUID `json:"productId" gorm:"type:uuid;not null;index"`
	Quantity        int       `json:"quantity" gorm:"not null;check:quantity > 0"`

	Product *Product `json:"product,omitempty" gorm:"foreignKey:ProductID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT"`
}

func (CustomerOrderProduct) TableName() string {
	return "customer_order_products"
}

const DefaultWalletCurrency = "INR"

// Wallet - кошелёк пользователя, создаётся лениво при первом обращении
type Wallet struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	UserID    uuid.UUID `json:"userId" gorm:"type:uuid;not null;uniqueIndex"`
	Balance   int64     `json:"balance" gorm:"not null;check:balance >= 0"`
	Currency  string    `json:"currency" gorm:"type:varchar(10);not null"`
	IsActive  bool      `json:"isActive" gorm:"not null"`
	CreatedAt time.Time `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updatedAt" gorm:"autoUpdateTime"`

	User *User `json:"user,omitempty" gorm:"foreignKey:UserID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (Wallet) TableName() string {
	return "wallets"
}

type TransactionType string

const (
	TransactionTypeCredit TransactionType = "CREDIT"
	TransactionTypeDebit  TransactionType = "DEBIT"
)

type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
)

// WalletTransaction - запись журнала (ledger), только добавляется
type WalletTransaction struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	WalletID    uuid.UUID         `json:"walletId" gorm:"type:uuid;not null;index"`
	Amount      int64             `json:"amount" gorm:"not null;check:amount > 0"`
	Type        TransactionType   `json:"type" gorm:"type:varchar(10);not null"`
	Status      TransactionStatus `json:"status" gorm:"type:varchar(20);not null"`
	Description *string           `json:"description"`
	Reference   *string           `json:"reference" gorm:"type:varchar(255)"`
	Metadata    json.RawMessage   `json:"metadata,omitempty" gorm:"type:jsonb"`
	CreatedAt   time.Time         `json:"createdAt" gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time         `json:"updatedAt" gorm:"autoUpdateTime"`

	Wallet *Wallet `json:"wallet,omitempty" gorm:"foreignKey:WalletID;constraint:OnUpdate:CASCADE,OnDelete:CASCADE"`
}

func (WalletTransaction) TableName() string {
	return "wallet_transactions"
}

// AllModels - порядок важен для AutoMigrate: сначала таблицы, на которые ссылаются
func AllModels() []interface{} {
	return []interface{}{
		&User{},
		&Category{},
		&Merchant{},
		&Product{},
		&Image{},
		&ProductVideo{},
		&CustomerOrder{},
		&CustomerOrderProduct{},
		&Wallet{},
		&WalletTransaction{},
	}
}

// ProductEvent - событие изменения товара для Kafka
type ProductEvent struct {
	EventType  string    `json:"event_type"` // PRODUCT_CREATED, PRODUCT_UPDATED, PRODUCT_DELETED
	ProductID  uuid.UUID `json:"product_id"`
	Slug       string    `json:"slug,omitempty"`
	Title      string    `json:"title,omitempty"`
	Price      int64     `json:"price,omitempty"`
	MerchantID uuid.UUID `json:"merchant_id,omitempty"`
	CategoryID uuid.UUID `json:"category_id,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// WalletEvent - событие проведения транзакции кошелька
type WalletEvent struct {
	EventType     string          `json:"event_type"` // WALLET_TRANSACTION_COMPLETED
	TransactionID uuid.UUID       `json:"transaction_id"`
	WalletID      uuid.UUID       `json:"wallet_id"`
	UserID        uuid.UUID       `json:"user_id"`
	Type          TransactionType `json:"type"`
	Amount        int64           `json:"amount"`
	Balance       int64           `json:"balance"`
	Timestamp     time.Time       `json:"timestamp"`
}
