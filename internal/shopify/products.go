package shopify

import "context"

const productCreateMutation = `
mutation populateProduct($input: ProductInput!) {
  productCreate(input: $input) {
    product { id title }
    userErrors { field message }
  }
}`

type ProductInput struct {
	Title string `json:"title"`
}

type Product struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}

type productCreatePayload struct {
	ProductCreate struct {
		Product    *Product    `json:"product"`
		UserErrors []UserError `json:"userErrors"`
	} `json:"productCreate"`
}

func (c *Client) CreateProduct(ctx context.Context, in ProductInput) (Product, error) {
	const op = "products.create"
	resp, err := postGraphQL[productCreatePayload](ctx, c, op, productCreateMutation, map[string]any{"input": in})
	if err != nil {
		return Product{}, err
	}
	pc := resp.Data.ProductCreate
	if len(pc.UserErrors) > 0 {
		return Product{}, &RemoteServiceError{Op: op, Message: userErrorsMessage(pc.UserErrors)}
	}
	if pc.Product == nil {
		return Product{}, &RemoteServiceError{Op: op, Message: "productCreate returned no product"}
	}
	return *pc.Product, nil
}
