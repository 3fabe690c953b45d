package storefront

const checkoutFields = `
fragment CheckoutFields on Checkout {
  id
  webUrl
  currencyCode
  subtotalPrice { amount currencyCode }
  totalPrice { amount currencyCode }
  lineItems(first: 250) {
    edges {
      node {
        quantity
        variant { id }
        customAttributes { key value }
      }
    }
  }
}`

const (
	mutationTokenCreate = `
mutation customerAccessTokenCreate($input: CustomerAccessTokenCreateInput!) {
  customerAccessTokenCreate(input: $input) {
    customerAccessToken { accessToken expiresAt }
    customerUserErrors { field message code }
  }
}`

	mutationTokenRenew = `
mutation customerAccessTokenRenew($customerAccessToken: String!) {
  customerAccessTokenRenew(customerAccessToken: $customerAccessToken) {
    customerAccessToken { accessToken expiresAt }
    userErrors { field message }
  }
}`

	mutationTokenDelete = `
mutation customerAccessTokenDelete($customerAccessToken: String!) {
  customerAccessTokenDelete(customerAccessToken: $customerAccessToken) {
    deletedAccessToken
    deletedCustomerAccessTokenId
    userErrors { field message }
  }
}`

	mutationCheckoutCreate = `
mutation checkoutCreate($input: CheckoutCreateInput!) {
  checkoutCreate(input: $input) {
    checkout { ...CheckoutFields }
    checkoutUserErrors { field message code }
  }
}` + checkoutFields

	mutationLineItemsReplace = `
mutation checkoutLineItemsReplace($checkoutId: ID!, $lineItems: [CheckoutLineItemInput!]!) {
  checkoutLineItemsReplace(checkoutId: $checkoutId, lineItems: $lineItems) {
    checkout { ...CheckoutFields }
    userErrors { field message code }
  }
}` + checkoutFields

	mutationCustomerActivate = `
mutation customerActivate($id: ID!, $input: CustomerActivateInput!) {
  customerActivate(id: $id, input: $input) {
    customerAccessToken { accessToken expiresAt }
    customerUserErrors { field message code }
  }
}`

	mutationCustomerReset = `
mutation customerReset($id: ID!, $input: CustomerResetInput!) {
  customerReset(id: $id, input: $input) {
    customerAccessToken { accessToken expiresAt }
    customerUserErrors { field message code }
  }
}`

	mutationCustomerResetByURL = `
mutation customerResetByUrl($resetUrl: URL!, $password: String!) {
  customerResetByUrl(resetUrl: $resetUrl, password: $password) {
    customerAccessToken { accessToken expiresAt }
    customerUserErrors { field message code }
  }
}`
)
