package graphql

import (
	"github.com/vektah/gqlparser/v2"
	"github.com/vektah/gqlparser/v2/ast"
)

const schemaSDL = `
type Query {
  health: String!
  carriers: [Carrier!]!
  serviceLevels: [String!]!
  rates(input: RateInput!): RatesResult
}

type Carrier {
  id: String!
}

input AddressInput {
  zip: String!
  country: String!
  city: String
  state: String
}

input PackageInput {
  weightLbs: Float!
  lengthIn: Float!
  widthIn: Float!
  heightIn: Float!
}

input RateInput {
  carrier: String
  serviceLevel: String
  origin: AddressInput!
  destination: AddressInput!
  package: PackageInput!
}

type RatesResult {
  carrier: String!
  count: Int!
  quotes: [RateQuote!]!
}

type RateQuote {
  carrier: String!
  serviceLevel: String!
  serviceName: String!
  price: Float!
  currency: String!
  estimatedDays: Int!
  guaranteedDelivery: Boolean!
}
`

// Schema is the parsed GraphQL schema served at /graphql.
var Schema = gqlparser.MustLoadSchema(&ast.Source{Name: "schema.graphql", Input: schemaSDL})
